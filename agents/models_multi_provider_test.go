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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedModel struct {
	Model
	name string
}

type recordingProvider struct {
	requested []string
}

func (p *recordingProvider) GetModel(name string) (Model, error) {
	p.requested = append(p.requested, name)
	return namedModel{name: name}, nil
}

func TestMultiProvider_Routing(t *testing.T) {
	mp := NewMultiProvider(NewMultiProviderParams{
		Bedrock: BedrockProviderParams{Client: &fakeConverse{}},
		Gemini:  GeminiProviderParams{Client: &fakeGenerator{}},
	})
	assert.Equal(t, DefaultProviderPrefix, mp.DefaultPrefix)

	testCases := []struct {
		modelName string
		want      any
	}{
		{"gpt-4.1", OpenAIChatCompletionsModel{}},
		{"openai/gpt-4.1", OpenAIChatCompletionsModel{}},
		{"bedrock/anthropic.claude-3-5-sonnet-20240620-v1:0", BedrockModel{}},
		{"gemini/gemini-2.5-flash", GeminiModel{}},
	}
	for _, tc := range testCases {
		t.Run(tc.modelName, func(t *testing.T) {
			m, err := mp.GetModel(tc.modelName)
			require.NoError(t, err)
			assert.IsType(t, tc.want, m)
		})
	}
}

func TestMultiProvider_ARNUsesDefaultPrefix(t *testing.T) {
	mp := NewMultiProvider(NewMultiProviderParams{
		DefaultPrefix: "bedrock",
		Bedrock:       BedrockProviderParams{Client: &fakeConverse{}},
	})
	arn := "arn:aws:bedrock:us-east-1:123456789012:inference-profile/us.anthropic.claude-3-7-sonnet"
	m, err := mp.GetModel(arn)
	require.NoError(t, err)
	assert.Equal(t, arn, m.(BedrockModel).ModelID)
}

func TestMultiProvider_ExtraRoutes(t *testing.T) {
	custom := &recordingProvider{}
	mp := NewMultiProvider(NewMultiProviderParams{
		Routes: map[string]ModelProvider{"openai": custom, "local": custom},
	})

	m, err := mp.GetModel("openai/gpt-4.1")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", m.(namedModel).name)

	_, err = mp.GetModel("local/llama")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4.1", "llama"}, custom.requested)
	assert.Len(t, mp.Routes, 4)
}

func TestMultiProvider_Errors(t *testing.T) {
	mp := NewMultiProvider(NewMultiProviderParams{})

	_, err := mp.GetModel("")
	assert.ErrorAs(t, err, &UserError{})

	_, err = mp.GetModel("unknown/model")
	assert.ErrorAs(t, err, &UserError{})
	assert.ErrorContains(t, err, `unknown prefix "unknown"`)
}
