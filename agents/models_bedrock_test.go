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
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input  *bedrockruntime.ConverseInput
	output *bedrockruntime.ConverseOutput
	err    error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.output, f.err
}

func TestBedrockModel_GetResponse(t *testing.T) {
	client := &fakeConverse{
		output: &bedrockruntime.ConverseOutput{
			Output: &types.ConverseOutputMemberMessage{
				Value: types.Message{
					Role: types.ConversationRoleAssistant,
					Content: []types.ContentBlock{
						&types.ContentBlockMemberText{Value: "Searching. "},
						&types.ContentBlockMemberText{Value: "One moment."},
						&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
							ToolUseId: aws.String("tool-1"),
							Name:      aws.String("web_search"),
							Input:     document.NewLazyDocument(map[string]any{"query": "acme"}),
						}},
					},
				},
			},
			StopReason: types.StopReasonToolUse,
			Usage: &types.TokenUsage{
				InputTokens:  aws.Int32(20),
				OutputTokens: aws.Int32(5),
				TotalTokens:  aws.Int32(25),
			},
		},
	}

	model := NewBedrockModel("anthropic.claude-3-5-sonnet", client)
	resp, err := model.GetResponse(t.Context(), ModelResponseParams{
		SystemInstructions: "Be brief.",
		Input:              []message.Item{message.UserMessage("Analyze Acme")},
		ModelSettings: modelsettings.ModelSettings{
			MaxTokens:  optional.Value(int64(512)),
			ToolChoice: modelsettings.ToolChoiceRequired,
		},
		Tools: []tools.Tool{tools.Function{
			Name:             "web_search",
			Description:      "Search the web",
			ParamsJSONSchema: map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []message.Item{
		message.AssistantMessage("Searching. One moment."),
		message.FunctionCall("tool-1", "web_search", `{"query":"acme"}`),
	}, resp.Output)
	assert.Equal(t, uint64(25), resp.Usage.TotalTokens)
	assert.Equal(t, uint64(20), resp.Usage.InputTokens)

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, "anthropic.claude-3-5-sonnet", aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	assert.Equal(t, "Be brief.", in.System[0].(*types.SystemContentBlockMemberText).Value)
	assert.Equal(t, int32(512), aws.ToInt32(in.InferenceConfig.MaxTokens))
	assert.Nil(t, in.InferenceConfig.Temperature)
	require.NotNil(t, in.ToolConfig)
	require.Len(t, in.ToolConfig.Tools, 1)
	assert.Equal(t, "web_search", aws.ToString(in.ToolConfig.Tools[0].(*types.ToolMemberToolSpec).Value.Name))
	assert.IsType(t, &types.ToolChoiceMemberAny{}, in.ToolConfig.ToolChoice)
}

func TestBedrockModel_ErrorIsProviderError(t *testing.T) {
	model := NewBedrockModel("m", &fakeConverse{err: errors.New("throttled")})
	_, err := model.GetResponse(t.Context(), ModelResponseParams{
		Input: []message.Item{message.UserMessage("hi")},
	})
	var providerErr ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "bedrock", providerErr.Provider)
	assert.ErrorContains(t, err, "throttled")
}

func TestBedrockConverter_ItemsToMessages(t *testing.T) {
	msgs, err := BedrockConverter().ItemsToMessages([]message.Item{
		message.UserMessage("first"),
		message.UserMessage("second"),
		message.AssistantMessage(" "),
		message.FunctionCall("c1", "web_search", `{"query":"a"}`),
		message.FunctionCallOutput("c1", "web_search", "result"),
		message.UserMessage("thanks"),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, types.ConversationRoleUser, msgs[0].Role)
	assert.Len(t, msgs[0].Content, 2)

	assert.Equal(t, types.ConversationRoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Content, 1)
	toolUse := msgs[1].Content[0].(*types.ContentBlockMemberToolUse)
	assert.Equal(t, "c1", aws.ToString(toolUse.Value.ToolUseId))

	assert.Equal(t, types.ConversationRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	assert.IsType(t, &types.ContentBlockMemberToolResult{}, msgs[2].Content[0])
}

func TestBedrockConverter_InvalidArguments(t *testing.T) {
	_, err := BedrockConverter().ItemsToMessages([]message.Item{
		message.FunctionCall("c1", "web_search", `{not json`),
	})
	assert.ErrorAs(t, err, &ModelBehaviorError{})
}

func TestBedrockProvider_GetModelWithClient(t *testing.T) {
	client := &fakeConverse{}
	provider := NewBedrockProvider(BedrockProviderParams{Client: client})

	model, err := provider.GetModel("amazon.nova-pro-v1:0")
	require.NoError(t, err)
	assert.Equal(t, "amazon.nova-pro-v1:0", model.(BedrockModel).ModelID)

	_, err = provider.GetModel("")
	assert.Error(t, err)
}
