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
	"maps"
	"strings"
)

// DefaultProviderPrefix routes model names that carry no prefix.
const DefaultProviderPrefix = "openai"

// MultiProvider resolves "prefix/model" names against a table of providers.
// The built-in routes are "openai", "bedrock" and "gemini"; the names are
// those of the PROVIDER setting of the configuration:
//
//	openai/gpt-4.1
//	bedrock/anthropic.claude-3-5-sonnet-20240620-v1:0
//	gemini/gemini-2.5-flash
//
// A name without prefix, or a Bedrock ARN, goes to DefaultPrefix. Only the
// first "/" is significant.
type MultiProvider struct {
	DefaultPrefix string
	Routes        map[string]ModelProvider
}

type NewMultiProviderParams struct {
	// Defaults to DefaultProviderPrefix.
	DefaultPrefix string

	OpenAI  OpenAIProviderParams
	Bedrock BedrockProviderParams
	Gemini  GeminiProviderParams

	// Extra routes. They replace built-in routes with the same prefix.
	Routes map[string]ModelProvider
}

func NewMultiProvider(params NewMultiProviderParams) *MultiProvider {
	routes := map[string]ModelProvider{
		"openai":  NewOpenAIProvider(params.OpenAI),
		"bedrock": NewBedrockProvider(params.Bedrock),
		"gemini":  NewGeminiProvider(params.Gemini),
	}
	maps.Copy(routes, params.Routes)

	prefix := params.DefaultPrefix
	if prefix == "" {
		prefix = DefaultProviderPrefix
	}
	return &MultiProvider{DefaultPrefix: prefix, Routes: routes}
}

func (mp *MultiProvider) split(modelName string) (prefix, name string) {
	if !strings.HasPrefix(modelName, "arn:") {
		if p, n, ok := strings.Cut(modelName, "/"); ok {
			return p, n
		}
	}
	return mp.DefaultPrefix, modelName
}

func (mp *MultiProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, NewUserError("model name is required")
	}
	prefix, name := mp.split(modelName)
	provider, ok := mp.Routes[prefix]
	if !ok || provider == nil {
		return nil, UserErrorf("unknown prefix %q", prefix)
	}
	return provider.GetModel(name)
}
