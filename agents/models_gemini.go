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
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/usage"
	"google.golang.org/genai"
)

// GeminiContentGenerator is the subset of the genai client used by
// GeminiModel. (*genai.Client).Models satisfies it.
type GeminiContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiModel struct {
	Model  string
	client GeminiContentGenerator
}

func NewGeminiModel(model string, client GeminiContentGenerator) GeminiModel {
	return GeminiModel{Model: model, client: client}
}

func (m GeminiModel) GetResponse(ctx context.Context, params ModelResponseParams) (*ModelResponse, error) {
	return traceGeneration(ctx, "gemini", m.Model, params, func(ctx context.Context) (*ModelResponse, error) {
		contents, err := GeminiConverter().ItemsToContents(params.Input)
		if err != nil {
			return nil, err
		}

		resp, err := m.client.GenerateContent(ctx, m.Model, contents, m.generateConfig(params))
		if err != nil {
			return nil, newProviderError("gemini", m.Model, err)
		}

		u := &usage.Usage{Requests: 1}
		if md := resp.UsageMetadata; md != nil {
			u.InputTokens = uint64(md.PromptTokenCount)
			u.OutputTokens = uint64(md.CandidatesTokenCount)
			u.TotalTokens = uint64(md.TotalTokenCount)
		}

		return &ModelResponse{
			Output:     GeminiConverter().ResponseToItems(resp),
			Usage:      u,
			ResponseID: resp.ResponseID,
		}, nil
	})
}

func (m GeminiModel) generateConfig(params ModelResponseParams) *genai.GenerateContentConfig {
	ms := params.ModelSettings
	cfg := &genai.GenerateContentConfig{}
	if params.SystemInstructions != "" {
		cfg.SystemInstruction = genai.NewContentFromText(params.SystemInstructions, genai.RoleUser)
	}
	if v, ok := ms.Temperature.Get(); ok {
		t := float32(v)
		cfg.Temperature = &t
	}
	if v, ok := ms.TopP.Get(); ok {
		p := float32(v)
		cfg.TopP = &p
	}
	if v, ok := ms.MaxTokens.Get(); ok {
		cfg.MaxOutputTokens = int32(v)
	}

	if len(params.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(params.Tools))
		for _, tool := range params.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 tool.ToolName(),
				Description:          tool.ToolDescription(),
				ParametersJsonSchema: tool.ParametersSchema(),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}

		var mode genai.FunctionCallingConfigMode
		switch ms.ToolChoice {
		case "required":
			mode = genai.FunctionCallingConfigModeAny
		case "none":
			mode = genai.FunctionCallingConfigModeNone
		case "auto":
			mode = genai.FunctionCallingConfigModeAuto
		}
		if mode != "" {
			cfg.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
			}
		}
	}

	if s := params.OutputSchema; s != nil && s.IsStrictJSONSchema() && len(params.Tools) == 0 {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = s.JSONSchema()
	}
	return cfg
}

type geminiConverter struct{}

func GeminiConverter() geminiConverter { return geminiConverter{} }

// ItemsToContents converts conversation items to genai contents. Gemini
// has no system role in the history, so system messages are sent as user
// text.
func (geminiConverter) ItemsToContents(items []message.Item) ([]*genai.Content, error) {
	var result []*genai.Content
	appendPart := func(role string, part *genai.Part) {
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Parts = append(result[n-1].Parts, part)
			return
		}
		result = append(result, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, UserErrorf("invalid conversation item: %w", err)
		}
		switch item.Type {
		case message.TypeMessage:
			role := genai.RoleUser
			if item.Role == message.RoleAssistant {
				role = genai.RoleModel
			}
			appendPart(string(role), genai.NewPartFromText(item.Content))
		case message.TypeFunctionCall:
			args := map[string]any{}
			if item.Arguments != "" {
				if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
					return nil, ModelBehaviorErrorf("function call %s has invalid JSON arguments: %w", item.Name, err)
				}
			}
			part := genai.NewPartFromFunctionCall(item.Name, args)
			part.FunctionCall.ID = item.CallID
			appendPart(string(genai.RoleModel), part)
		case message.TypeFunctionCallOutput:
			part := genai.NewPartFromFunctionResponse(item.Name, map[string]any{"output": item.Output})
			part.FunctionResponse.ID = item.CallID
			appendPart(string(genai.RoleUser), part)
		}
	}
	return result, nil
}

// ResponseToItems converts the first candidate of a response. Function
// calls without an ID get a generated one, so outputs can be matched.
func (geminiConverter) ResponseToItems(resp *genai.GenerateContentResponse) []message.Item {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}

	var (
		text  strings.Builder
		calls []message.Item
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			id := fc.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			args, err := json.Marshal(fc.Args)
			if err != nil || fc.Args == nil {
				args = []byte("{}")
			}
			calls = append(calls, message.FunctionCall(id, fc.Name, string(args)))
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}

	var items []message.Item
	if text.Len() > 0 {
		items = append(items, message.AssistantMessage(text.String()))
	}
	return append(items, calls...)
}

type GeminiProviderParams struct {
	// The API key. If empty, GEMINI_API_KEY or GOOGLE_API_KEY is used.
	APIKey string

	// Optional client, mainly for tests.
	Client GeminiContentGenerator
}

type GeminiProvider struct {
	params GeminiProviderParams

	mu     sync.Mutex
	client GeminiContentGenerator
}

func NewGeminiProvider(params GeminiProviderParams) *GeminiProvider {
	return &GeminiProvider{params: params, client: params.Client}
}

func (p *GeminiProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get Gemini model without a name")
	}
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}
	return NewGeminiModel(modelName, client), nil
}

func (p *GeminiProvider) getClient() (GeminiContentGenerator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		apiKey := p.params.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, NewUserError("GeminiProvider: an API key is missing")
		}
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GenAI client: %w", err)
		}
		p.client = client.Models
	}
	return p.client, nil
}
