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
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenaiClient is an OpenAI client that remembers its base URL, so that
// traces can tell OpenAI from compatible gateways.
type OpenaiClient struct {
	openai.Client
	BaseURL optional.Optional[string]
}

func NewOpenaiClient(baseURL optional.Optional[string], opts ...option.RequestOption) OpenaiClient {
	if v, ok := baseURL.Get(); ok {
		opts = append(slices.Clone(opts), option.WithBaseURL(v))
	}
	return OpenaiClient{Client: openai.NewClient(opts...), BaseURL: baseURL}
}

type OpenAIProviderParams struct {
	// Falls back to OPENAI_API_KEY.
	APIKey optional.Optional[string]

	// Falls back to OPENAI_BASE_URL, then to the OpenAI API. Any endpoint
	// speaking the chat completions protocol works.
	BaseURL optional.Optional[string]

	// Ready-made client. APIKey and BaseURL are ignored when set.
	Client *OpenaiClient
}

// OpenAIProvider serves chat completion models. Its client is created on
// first use, so configuring it costs nothing when another provider is
// selected.
type OpenAIProvider struct {
	params OpenAIProviderParams
	client func() OpenaiClient
}

func NewOpenAIProvider(params OpenAIProviderParams) *OpenAIProvider {
	p := &OpenAIProvider{params: params}
	p.client = sync.OnceValue(p.newClient)
	return p
}

func (p *OpenAIProvider) newClient() OpenaiClient {
	if p.params.Client != nil {
		return *p.params.Client
	}
	apiKey := p.params.APIKey.ValueOrFallback(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		Logger().Warn("OpenAI API key is missing: set OPENAI_API_KEY")
	}
	baseURL := p.params.BaseURL
	if v := os.Getenv("OPENAI_BASE_URL"); !baseURL.Present && v != "" {
		baseURL = optional.Value(v)
	}
	return NewOpenaiClient(baseURL, option.WithAPIKey(apiKey))
}

func (p *OpenAIProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get OpenAI model without a name")
	}
	return NewOpenAIChatCompletionsModel(modelName, p.client()), nil
}
