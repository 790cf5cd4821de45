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
	"log/slog"

	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/nlpodyssey/productintel/usage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

type OpenAIChatCompletionsModel struct {
	Model  openai.ChatModel
	client OpenaiClient
}

func NewOpenAIChatCompletionsModel(model openai.ChatModel, client OpenaiClient) OpenAIChatCompletionsModel {
	return OpenAIChatCompletionsModel{
		Model:  model,
		client: client,
	}
}

// BaseURL is the endpoint of the client, unset for the OpenAI API.
func (m OpenAIChatCompletionsModel) BaseURL() optional.Optional[string] {
	return m.client.BaseURL
}

func (m OpenAIChatCompletionsModel) GetResponse(ctx context.Context, params ModelResponseParams) (*ModelResponse, error) {
	return traceGeneration(ctx, "openai", m.Model, params, func(ctx context.Context) (*ModelResponse, error) {
		body, opts, err := m.prepareRequest(params)
		if err != nil {
			return nil, err
		}

		response, err := m.client.Chat.Completions.New(ctx, *body, opts...)
		if err != nil {
			return nil, newProviderError("openai", m.Model, err)
		}
		if len(response.Choices) == 0 {
			return nil, newProviderError("openai", m.Model, errors.New("response has no choices"))
		}

		u := &usage.Usage{
			Requests:     1,
			InputTokens:  uint64(response.Usage.PromptTokens),
			OutputTokens: uint64(response.Usage.CompletionTokens),
			TotalTokens:  uint64(response.Usage.TotalTokens),
		}

		return &ModelResponse{
			Output:     ChatCmplConverter().MessageToOutputItems(response.Choices[0].Message),
			Usage:      u,
			ResponseID: response.ID,
		}, nil
	})
}

func (m OpenAIChatCompletionsModel) prepareRequest(params ModelResponseParams) (*openai.ChatCompletionNewParams, []option.RequestOption, error) {
	conv := ChatCmplConverter()

	convertedMessages, err := conv.ItemsToMessages(params.SystemInstructions, params.Input)
	if err != nil {
		return nil, nil, err
	}

	ms := params.ModelSettings

	var parallelToolCalls param.Opt[bool]
	if v, ok := ms.ParallelToolCalls.Get(); ok && len(params.Tools) > 0 {
		parallelToolCalls = param.NewOpt(v)
	}

	// Nil, not empty: the API rejects "tools": [].
	var convertedTools []openai.ChatCompletionToolUnionParam
	for _, tool := range params.Tools {
		convertedTools = append(convertedTools, conv.ToolToOpenai(tool))
	}

	toolChoice := conv.ConvertToolChoice(ms.ToolChoice)
	if len(convertedTools) == 0 {
		toolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{}
	}

	if DontLogModelData {
		Logger().Debug("Calling LLM", slog.String("model", m.Model))
	} else {
		Logger().Debug(
			"Calling LLM",
			slog.String("model", m.Model),
			slog.String("Messages", PrettyJSON(convertedMessages)),
			slog.String("Tools", PrettyJSON(convertedTools)),
		)
	}

	body := &openai.ChatCompletionNewParams{
		Model:             m.Model,
		Messages:          convertedMessages,
		Tools:             convertedTools,
		Temperature:       optional.ToParamOptOmitted(ms.Temperature),
		TopP:              optional.ToParamOptOmitted(ms.TopP),
		MaxTokens:         optional.ToParamOptOmitted(ms.MaxTokens),
		ToolChoice:        toolChoice,
		ResponseFormat:    conv.ConvertResponseFormat(params.OutputSchema),
		ParallelToolCalls: parallelToolCalls,
	}

	var opts []option.RequestOption
	for k, v := range ms.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	return body, opts, nil
}
