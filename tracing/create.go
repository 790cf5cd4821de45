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

import "context"

type TraceParams struct {
	// Name of the workflow, e.g. "Product analysis".
	WorkflowName string

	// Generated when empty.
	TraceID string

	// Links the traces of one session, e.g. the analysis session ID.
	GroupID string

	Metadata map[string]any

	// A disabled trace can be run like any other but is never recorded.
	Disabled bool
}

// NewTrace creates a trace without starting it. Use RunTrace, Trace.Run or
// Trace.Start and Trace.Finish.
func NewTrace(ctx context.Context, params TraceParams) Trace {
	if GetCurrentTrace(ctx) != nil {
		Logger().Warn("Creating a trace inside another one; the outer trace is left unchanged")
	}
	return GetTraceProvider().CreateTrace(
		params.WorkflowName,
		params.TraceID,
		params.GroupID,
		params.Metadata,
		params.Disabled,
	)
}

// RunTrace runs fn within a new trace.
func RunTrace(ctx context.Context, params TraceParams, fn func(context.Context, Trace) error) error {
	return NewTrace(ctx, params).Run(ctx, fn)
}

// SpanOptions are common to every kind of span.
type SpanOptions struct {
	// Generated when empty.
	SpanID string

	// A Trace or a Span. When nil, the current span of ctx is the parent, or
	// else its current trace.
	Parent any

	// A disabled span can be run like any other but is never recorded.
	Disabled bool
}

func newSpan(ctx context.Context, data SpanData, opts SpanOptions) Span {
	return GetTraceProvider().CreateSpan(ctx, data, opts.SpanID, opts.Parent, opts.Disabled)
}

// AgentSpanParams describes the run of one agent.
type AgentSpanParams struct {
	Name       string
	Tools      []string
	OutputType string
	SpanOptions
}

func NewAgentSpan(ctx context.Context, params AgentSpanParams) Span {
	return newSpan(ctx, &AgentSpanData{
		Name:       params.Name,
		Tools:      params.Tools,
		OutputType: params.OutputType,
	}, params.SpanOptions)
}

func AgentSpan(ctx context.Context, params AgentSpanParams, fn func(context.Context, Span) error) error {
	return NewAgentSpan(ctx, params).Run(ctx, fn)
}

// FunctionSpanParams describes one tool call. Input holds the raw JSON
// arguments.
type FunctionSpanParams struct {
	Name   string
	Input  string
	Output any
	SpanOptions
}

func NewFunctionSpan(ctx context.Context, params FunctionSpanParams) Span {
	return newSpan(ctx, &FunctionSpanData{
		Name:   params.Name,
		Input:  params.Input,
		Output: params.Output,
	}, params.SpanOptions)
}

func FunctionSpan(ctx context.Context, params FunctionSpanParams, fn func(context.Context, Span) error) error {
	return NewFunctionSpan(ctx, params).Run(ctx, fn)
}

// GenerationSpanParams describes one model request. The model adapters fill
// Output and Usage of the span data once the provider answers.
type GenerationSpanParams struct {
	Input       []map[string]any
	Output      []map[string]any
	Model       string
	ModelConfig map[string]any
	Usage       map[string]any
	SpanOptions
}

func NewGenerationSpan(ctx context.Context, params GenerationSpanParams) Span {
	return newSpan(ctx, &GenerationSpanData{
		Input:       params.Input,
		Output:      params.Output,
		Model:       params.Model,
		ModelConfig: params.ModelConfig,
		Usage:       params.Usage,
	}, params.SpanOptions)
}

func GenerationSpan(ctx context.Context, params GenerationSpanParams, fn func(context.Context, Span) error) error {
	return NewGenerationSpan(ctx, params).Run(ctx, fn)
}

// CustomSpanParams describes an application step, such as the concurrent
// run of the specialist agents.
type CustomSpanParams struct {
	Name string
	Data map[string]any
	SpanOptions
}

func NewCustomSpan(ctx context.Context, params CustomSpanParams) Span {
	return newSpan(ctx, &CustomSpanData{Name: params.Name, Data: params.Data}, params.SpanOptions)
}

func CustomSpan(ctx context.Context, params CustomSpanParams, fn func(context.Context, Span) error) error {
	return NewCustomSpan(ctx, params).Run(ctx, fn)
}
