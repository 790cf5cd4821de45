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
	"log/slog"

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/types/message"
)

type modelCall func(ctx context.Context) (*ModelResponse, error)

// traceGeneration runs call inside a generation span, recording the
// exchanged messages (unless DontLogModelData is set) and the token usage.
func traceGeneration(
	ctx context.Context,
	provider, model string,
	params ModelResponseParams,
	call modelCall,
) (resp *ModelResponse, err error) {
	spanParams := tracing.GenerationSpanParams{
		Model:       model,
		ModelConfig: generationModelConfig(provider, params.ModelSettings),
	}
	if !DontLogModelData {
		spanParams.Input = exportItems(params.SystemInstructions, params.Input)
	}

	err = tracing.GenerationSpan(ctx, spanParams, func(ctx context.Context, span tracing.Span) error {
		resp, err = call(ctx)
		if err != nil {
			AttachErrorToSpan(span, tracing.SpanError{
				Message: "Error getting response",
				Data:    map[string]any{"error": err.Error()},
			})
			return err
		}

		sd, _ := span.SpanData().(*tracing.GenerationSpanData)
		if sd != nil {
			if !DontLogModelData {
				sd.Output = exportItems("", resp.Output)
			}
			if resp.Usage != nil {
				sd.Usage = resp.Usage.Map()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if DontLogModelData {
		Logger().Debug("LLM responded", slog.String("provider", provider))
	} else {
		Logger().Debug("LLM responded",
			slog.String("provider", provider),
			slog.String("output", PrettyJSON(resp.Output)))
	}
	return resp, nil
}

func generationModelConfig(provider string, ms modelsettings.ModelSettings) map[string]any {
	cfg := ms.Map()
	cfg["provider"] = provider
	return cfg
}

func exportItems(system string, items []message.Item) []map[string]any {
	out := make([]map[string]any, 0, len(items)+1)
	if system != "" {
		out = append(out, message.SystemMessage(system).Export())
	}
	for _, it := range items {
		out = append(out, it.Export())
	}
	return out
}
