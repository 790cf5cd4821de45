// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/usage"
)

// BedrockConverseAPI is the subset of the Bedrock runtime client used by
// BedrockModel. *bedrockruntime.Client satisfies it.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockModel calls a foundation model through the Bedrock Converse API.
type BedrockModel struct {
	ModelID string
	client  BedrockConverseAPI
}

func NewBedrockModel(modelID string, client BedrockConverseAPI) BedrockModel {
	return BedrockModel{ModelID: modelID, client: client}
}

func (m BedrockModel) GetResponse(ctx context.Context, params ModelResponseParams) (*ModelResponse, error) {
	return traceGeneration(ctx, "bedrock", m.ModelID, params, func(ctx context.Context) (*ModelResponse, error) {
		input, err := m.prepareRequest(params)
		if err != nil {
			return nil, err
		}

		out, err := m.client.Converse(ctx, input)
		if err != nil {
			return nil, newProviderError("bedrock", m.ModelID, err)
		}

		items, err := BedrockConverter().OutputToItems(out.Output)
		if err != nil {
			return nil, newProviderError("bedrock", m.ModelID, err)
		}

		u := &usage.Usage{Requests: 1}
		if out.Usage != nil {
			u.InputTokens = uint64(aws.ToInt32(out.Usage.InputTokens))
			u.OutputTokens = uint64(aws.ToInt32(out.Usage.OutputTokens))
			u.TotalTokens = uint64(aws.ToInt32(out.Usage.TotalTokens))
		}

		Logger().Debug("Bedrock stop reason", slog.String("stop_reason", string(out.StopReason)))
		return &ModelResponse{Output: items, Usage: u}, nil
	})
}

func (m BedrockModel) prepareRequest(params ModelResponseParams) (*bedrockruntime.ConverseInput, error) {
	conv := BedrockConverter()

	messages, err := conv.ItemsToMessages(params.Input)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(m.ModelID),
		Messages: messages,
	}
	if params.SystemInstructions != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: params.SystemInstructions},
		}
	}

	ms := params.ModelSettings
	cfg := &types.InferenceConfiguration{}
	if v, ok := ms.MaxTokens.Get(); ok {
		cfg.MaxTokens = aws.Int32(int32(v))
	}
	if v, ok := ms.Temperature.Get(); ok {
		cfg.Temperature = aws.Float32(float32(v))
	}
	if v, ok := ms.TopP.Get(); ok {
		cfg.TopP = aws.Float32(float32(v))
	}
	input.InferenceConfig = cfg

	if len(params.Tools) > 0 {
		toolConfig := &types.ToolConfiguration{}
		for _, tool := range params.Tools {
			toolConfig.Tools = append(toolConfig.Tools, &types.ToolMemberToolSpec{
				Value: types.ToolSpecification{
					Name:        aws.String(tool.ToolName()),
					Description: aws.String(tool.ToolDescription()),
					InputSchema: &types.ToolInputSchemaMemberJson{
						Value: document.NewLazyDocument(tool.ParametersSchema()),
					},
				},
			})
		}
		switch ms.ToolChoice {
		case "required":
			toolConfig.ToolChoice = &types.ToolChoiceMemberAny{Value: types.AnyToolChoice{}}
		case "auto":
			toolConfig.ToolChoice = &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}}
		}
		input.ToolConfig = toolConfig
	}

	return input, nil
}

type bedrockConverter struct{}

func BedrockConverter() bedrockConverter { return bedrockConverter{} }

// ItemsToMessages converts conversation items to Converse messages.
//
// Converse requires alternating roles: function calls join the assistant
// turn, and function outputs are sent as tool results in a user turn.
// System messages found in the history are sent as user text.
func (bedrockConverter) ItemsToMessages(items []message.Item) ([]types.Message, error) {
	var result []types.Message
	appendBlock := func(role types.ConversationRole, block types.ContentBlock) {
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, block)
			return
		}
		result = append(result, types.Message{Role: role, Content: []types.ContentBlock{block}})
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, UserErrorf("invalid conversation item: %w", err)
		}
		switch item.Type {
		case message.TypeMessage:
			role := types.ConversationRoleUser
			if item.Role == message.RoleAssistant {
				role = types.ConversationRoleAssistant
			}
			if strings.TrimSpace(item.Content) == "" {
				continue
			}
			appendBlock(role, &types.ContentBlockMemberText{Value: item.Content})
		case message.TypeFunctionCall:
			var args any = map[string]any{}
			if item.Arguments != "" {
				if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
					return nil, ModelBehaviorErrorf("function call %s has invalid JSON arguments: %w", item.Name, err)
				}
			}
			appendBlock(types.ConversationRoleAssistant, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{
					ToolUseId: aws.String(item.CallID),
					Name:      aws.String(item.Name),
					Input:     document.NewLazyDocument(args),
				},
			})
		case message.TypeFunctionCallOutput:
			appendBlock(types.ConversationRoleUser, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(item.CallID),
					Content: []types.ToolResultContentBlock{
						&types.ToolResultContentBlockMemberText{Value: item.Output},
					},
				},
			})
		}
	}
	return result, nil
}

// OutputToItems converts the Converse output message.
func (bedrockConverter) OutputToItems(output types.ConverseOutput) ([]message.Item, error) {
	msg, ok := output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected Converse output type %T", output)
	}

	var (
		text  strings.Builder
		calls []message.Item
	)
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			text.WriteString(b.Value)
		case *types.ContentBlockMemberToolUse:
			args := "{}"
			if b.Value.Input != nil {
				raw, err := b.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return nil, fmt.Errorf("failed to read tool input of %s: %w", aws.ToString(b.Value.Name), err)
				}
				args = string(raw)
			}
			calls = append(calls, message.FunctionCall(aws.ToString(b.Value.ToolUseId), aws.ToString(b.Value.Name), args))
		default:
			Logger().Debug("Ignoring Converse content block", slog.String("type", fmt.Sprintf("%T", block)))
		}
	}

	var items []message.Item
	if text.Len() > 0 {
		items = append(items, message.AssistantMessage(text.String()))
	}
	return append(items, calls...), nil
}

type BedrockProviderParams struct {
	// AWS region of the Bedrock endpoint, e.g. "us-east-1".
	Region string

	// Optional client. When nil, one is built from the default AWS
	// credential chain on first use.
	Client BedrockConverseAPI
}

type BedrockProvider struct {
	params BedrockProviderParams

	mu     sync.Mutex
	client BedrockConverseAPI
}

func NewBedrockProvider(params BedrockProviderParams) *BedrockProvider {
	return &BedrockProvider{params: params, client: params.Client}
}

func (p *BedrockProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get Bedrock model without a model ID")
	}
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}
	return NewBedrockModel(modelName, client), nil
}

func (p *BedrockProvider) getClient() (BedrockConverseAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if p.params.Region != "" {
			opts = append(opts, awsconfig.WithRegion(p.params.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		p.client = bedrockruntime.NewFromConfig(cfg)
	}
	return p.client, nil
}
