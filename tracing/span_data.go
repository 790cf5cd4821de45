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

package tracing

import "fmt"

// SpanData represents span data in the trace.
type SpanData interface {
	// The Type of the span.
	Type() string

	// Export the span data as a map.
	Export() map[string]any
}

// AgentSpanData represents an Agent Span in the trace.
type AgentSpanData struct {
	// Mandatory name.
	Name string
	// Optional tools.
	Tools []string
	// Optional output type.
	OutputType string
}

func (*AgentSpanData) Type() string { return "agent" }

func (sd *AgentSpanData) Export() map[string]any {
	var outputType any
	if sd.OutputType != "" {
		outputType = sd.OutputType
	}
	return map[string]any{
		"type":        sd.Type(),
		"name":        sd.Name,
		"tools":       sd.Tools,
		"output_type": outputType,
	}
}

// FunctionSpanData represents a tool invocation.
type FunctionSpanData struct {
	// Mandatory name.
	Name string
	// Optional input.
	Input string
	// Optional output.
	Output any
}

func (*FunctionSpanData) Type() string { return "function" }

func (sd *FunctionSpanData) Export() map[string]any {
	var input any
	if sd.Input != "" {
		input = sd.Input
	}
	var output any
	if sd.Output != nil {
		output = fmt.Sprintf("%v", sd.Output)
	}
	return map[string]any{
		"type":   sd.Type(),
		"name":   sd.Name,
		"input":  input,
		"output": output,
	}
}

// GenerationSpanData represents one model call.
// Input and Output hold role/content maps.
type GenerationSpanData struct {
	Input       []map[string]any
	Output      []map[string]any
	Model       string
	ModelConfig map[string]any
	Usage       map[string]any
}

func (*GenerationSpanData) Type() string { return "generation" }

func (sd *GenerationSpanData) Export() map[string]any {
	var model any
	if sd.Model != "" {
		model = sd.Model
	}
	return map[string]any{
		"type":         sd.Type(),
		"input":        sd.Input,
		"output":       sd.Output,
		"model":        model,
		"model_config": sd.ModelConfig,
		"usage":        sd.Usage,
	}
}

// CustomSpanData represents a span for pipeline steps, such as the
// specialist fan-out or the dashboard rendering.
type CustomSpanData struct {
	Name string
	Data map[string]any
}

func (*CustomSpanData) Type() string { return "custom" }

func (sd *CustomSpanData) Export() map[string]any {
	return map[string]any{
		"type": sd.Type(),
		"name": sd.Name,
		"data": sd.Data,
	}
}
