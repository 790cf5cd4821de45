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

// Package modelsettings carries the sampling parameters sent with every
// model request. The [MODEL] section of the configuration fills them in.
package modelsettings

import (
	"maps"

	"github.com/nlpodyssey/productintel/types/optional"
)

// ModelSettings are the tuning parameters of a model call. Absent fields are
// left to the provider default.
//
// Bedrock and Gemini ignore ParallelToolCalls and ExtraHeaders.
type ModelSettings struct {
	Temperature optional.Optional[float64] `json:"temperature"`
	TopP        optional.Optional[float64] `json:"top_p"`
	MaxTokens   optional.Optional[int64]   `json:"max_tokens"`

	// Empty means the provider decides.
	ToolChoice        ToolChoice              `json:"tool_choice,omitempty"`
	ParallelToolCalls optional.Optional[bool] `json:"parallel_tool_calls"`

	// Headers added to the HTTP request of OpenAI-compatible providers.
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
}

type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

func (tc ToolChoice) String() string { return string(tc) }

// Resolve returns a copy of ms where every field set in override replaces
// the corresponding field of ms.
func (ms ModelSettings) Resolve(override ModelSettings) ModelSettings {
	out := ms
	overlay(&out.Temperature, override.Temperature)
	overlay(&out.TopP, override.TopP)
	overlay(&out.MaxTokens, override.MaxTokens)
	overlay(&out.ParallelToolCalls, override.ParallelToolCalls)
	if override.ToolChoice != "" {
		out.ToolChoice = override.ToolChoice
	}
	if len(override.ExtraHeaders) > 0 {
		out.ExtraHeaders = maps.Clone(override.ExtraHeaders)
	}
	return out
}

// Map exports the settings as the model configuration of a generation span.
func (ms ModelSettings) Map() map[string]any {
	m := make(map[string]any, 4)
	put(m, "temperature", ms.Temperature)
	put(m, "top_p", ms.TopP)
	put(m, "max_tokens", ms.MaxTokens)
	if ms.ToolChoice != "" {
		m["tool_choice"] = ms.ToolChoice.String()
	}
	return m
}

func overlay[T any](dst *optional.Optional[T], src optional.Optional[T]) {
	if src.Present {
		*dst = src
	}
}

func put[T any](m map[string]any, key string, o optional.Optional[T]) {
	if v, ok := o.Get(); ok {
		m[key] = v
	}
}
