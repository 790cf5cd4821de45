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
	"strings"
	"testing"

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiModel_GetResponse(t *testing.T) {
	client := &fakeGenerator{
		resp: &genai.GenerateContentResponse{
			ResponseID: "resp-1",
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Role: string(genai.RoleModel),
					Parts: []*genai.Part{
						{Text: "thinking...", Thought: true},
						{Text: "Here is the analysis."},
						{FunctionCall: &genai.FunctionCall{Name: "calculator", Args: map[string]any{"expression": "1+1"}}},
					},
				},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     3,
				CandidatesTokenCount: 4,
				TotalTokenCount:      7,
			},
		},
	}

	model := NewGeminiModel("gemini-2.5-flash", client)
	resp, err := model.GetResponse(t.Context(), ModelResponseParams{
		SystemInstructions: "Be thorough.",
		Input:              []message.Item{message.UserMessage("Analyze")},
		ModelSettings: modelsettings.ModelSettings{
			Temperature: optional.Value(0.5),
			ToolChoice:  modelsettings.ToolChoiceAuto,
		},
		Tools: []tools.Tool{tools.Function{Name: "calculator", ParamsJSONSchema: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Output, 2)
	assert.Equal(t, message.AssistantMessage("Here is the analysis."), resp.Output[0])
	call := resp.Output[1]
	assert.Equal(t, "calculator", call.Name)
	assert.Equal(t, `{"expression":"1+1"}`, call.Arguments)
	assert.True(t, strings.HasPrefix(call.CallID, "call_"))
	assert.Equal(t, "resp-1", resp.ResponseID)
	assert.Equal(t, uint64(7), resp.Usage.TotalTokens)

	assert.Equal(t, "gemini-2.5-flash", client.model)
	require.NotNil(t, client.config.SystemInstruction)
	assert.Equal(t, "Be thorough.", client.config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, client.config.Temperature)
	assert.Equal(t, float32(0.5), *client.config.Temperature)
	require.Len(t, client.config.Tools, 1)
	assert.Equal(t, "calculator", client.config.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, client.config.ToolConfig.FunctionCallingConfig.Mode)
}

func TestGeminiModel_StrictSchemaRequestsJSON(t *testing.T) {
	type out struct {
		Score int `json:"score"`
	}
	client := &fakeGenerator{resp: &genai.GenerateContentResponse{}}

	model := NewGeminiModel("gemini-2.5-pro", client)
	resp, err := model.GetResponse(t.Context(), ModelResponseParams{
		Input:        []message.Item{message.UserMessage("score it")},
		OutputSchema: OutputSchemaFor[out](OutputSchemaOpts{StrictJSONSchema: true}),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Output)
	assert.Equal(t, "application/json", client.config.ResponseMIMEType)
	assert.NotNil(t, client.config.ResponseJsonSchema)
}

func TestGeminiModel_ErrorIsProviderError(t *testing.T) {
	model := NewGeminiModel("gemini-2.5-pro", &fakeGenerator{err: errors.New("quota")})
	_, err := model.GetResponse(t.Context(), ModelResponseParams{
		Input: []message.Item{message.UserMessage("hi")},
	})
	assert.ErrorAs(t, err, &ProviderError{})
}

func TestGeminiConverter_ItemsToContents(t *testing.T) {
	contents, err := GeminiConverter().ItemsToContents([]message.Item{
		message.UserMessage("hi"),
		message.AssistantMessage("calling"),
		message.FunctionCall("c1", "calculator", `{"expression":"2*3"}`),
		message.FunctionCallOutput("c1", "calculator", "6"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	fc := contents[1].Parts[1].FunctionCall
	assert.Equal(t, "c1", fc.ID)
	assert.Equal(t, map[string]any{"expression": "2*3"}, fc.Args)

	fr := contents[2].Parts[0].FunctionResponse
	assert.Equal(t, "c1", fr.ID)
	assert.Equal(t, map[string]any{"output": "6"}, fr.Response)
}

func TestGeminiProvider_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := NewGeminiProvider(GeminiProviderParams{}).GetModel("gemini-2.5-flash")
	assert.ErrorAs(t, err, &UserError{})
}
