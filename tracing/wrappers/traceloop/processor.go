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

// Package traceloop exports analysis traces to Traceloop: every trace becomes
// a workflow, every span a task, and generation spans are logged as LLM
// prompt/completion pairs with their token usage.
package traceloop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlpodyssey/productintel/tracing"
	sdk "github.com/traceloop/go-openllmetry/traceloop-sdk"
)

// TracingProcessor implements tracing.Processor to send traces to Traceloop.
type TracingProcessor struct {
	client client
	vendor string

	workflows map[string]workflow
	tasks     map[string]task
	llmSpans  map[string]llmSpan
	mu        sync.Mutex
}

// ProcessorParams configures the Traceloop processor.
type ProcessorParams struct {
	// Traceloop API key. Required.
	APIKey string
	// Traceloop Base URL. Defaults to api.traceloop.com.
	BaseURL string
	// Vendor reported on prompts, e.g. "aws" or "openai".
	Vendor string
}

// NewTracingProcessor creates a new Traceloop tracing processor.
func NewTracingProcessor(ctx context.Context, params ProcessorParams) (*TracingProcessor, error) {
	if params.APIKey == "" {
		return nil, fmt.Errorf("traceloop API key is required")
	}
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = "api.traceloop.com"
	}

	c, err := sdk.NewClient(ctx, sdk.Config{
		BaseURL: baseURL,
		APIKey:  params.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Traceloop client: %w", err)
	}
	return newTracingProcessor(sdkClient{c}, params.Vendor), nil
}

func newTracingProcessor(c client, vendor string) *TracingProcessor {
	if vendor == "" {
		vendor = "aws"
	}
	return &TracingProcessor{
		client:    c,
		vendor:    vendor,
		workflows: make(map[string]workflow),
		tasks:     make(map[string]task),
		llmSpans:  make(map[string]llmSpan),
	}
}

func (p *TracingProcessor) OnTraceStart(ctx context.Context, trace tracing.Trace) error {
	workflowName := trace.Name()
	if workflowName == "" {
		workflowName = "Product analysis"
	}

	attrs := sdk.WorkflowAttributes{
		Name:                  workflowName,
		AssociationProperties: make(map[string]string),
	}
	for k, v := range trace.Metadata() {
		attrs.AssociationProperties[k] = fmt.Sprint(v)
	}

	wf := p.client.NewWorkflow(ctx, attrs)

	p.mu.Lock()
	p.workflows[trace.TraceID()] = wf
	p.mu.Unlock()
	return nil
}

func (p *TracingProcessor) OnTraceEnd(_ context.Context, trace tracing.Trace) error {
	p.mu.Lock()
	wf, ok := p.workflows[trace.TraceID()]
	delete(p.workflows, trace.TraceID())
	p.mu.Unlock()

	if ok {
		wf.End()
	}
	return nil
}

func (p *TracingProcessor) OnSpanStart(_ context.Context, span tracing.Span) error {
	p.mu.Lock()
	wf := p.workflows[span.TraceID()]
	p.mu.Unlock()

	if wf == nil {
		tracing.Logger().Debug("No Traceloop workflow for span, skipping", slog.String("span_id", span.SpanID()))
		return nil
	}

	t := wf.NewTask(taskName(span))

	p.mu.Lock()
	p.tasks[span.SpanID()] = t
	p.mu.Unlock()

	if data, ok := span.SpanData().(*tracing.GenerationSpanData); ok {
		ls, err := t.LogPrompt(sdk.Prompt{
			Vendor:   p.vendor,
			Mode:     "chat",
			Model:    data.Model,
			Messages: convertMessages(data.Input),
		})
		if err != nil {
			return fmt.Errorf("traceloop: log prompt: %w", err)
		}
		p.mu.Lock()
		p.llmSpans[span.SpanID()] = ls
		p.mu.Unlock()
	}
	return nil
}

func (p *TracingProcessor) OnSpanEnd(ctx context.Context, span tracing.Span) error {
	p.mu.Lock()
	t, taskOK := p.tasks[span.SpanID()]
	ls, llmOK := p.llmSpans[span.SpanID()]
	delete(p.tasks, span.SpanID())
	delete(p.llmSpans, span.SpanID())
	p.mu.Unlock()

	if llmOK {
		if data, ok := span.SpanData().(*tracing.GenerationSpanData); ok {
			completion := sdk.Completion{
				Model:    data.Model,
				Messages: convertMessages(data.Output),
			}
			if err := ls.LogCompletion(ctx, completion, extractUsage(data.Usage)); err != nil {
				tracing.Logger().Warn("Traceloop completion logging failed", slog.String("error", err.Error()))
			}
		}
	}
	if taskOK {
		t.End()
	}
	return nil
}

func (p *TracingProcessor) Shutdown(ctx context.Context) error {
	p.client.Shutdown(ctx)
	return nil
}

// ForceFlush does nothing: the Traceloop SDK flushes on its own.
func (p *TracingProcessor) ForceFlush(context.Context) error { return nil }

func taskName(span tracing.Span) string {
	switch data := span.SpanData().(type) {
	case *tracing.AgentSpanData:
		return "agent_" + data.Name
	case *tracing.FunctionSpanData:
		return "function_" + data.Name
	case *tracing.GenerationSpanData:
		if data.Model != "" {
			return "llm_" + data.Model
		}
		return "llm_generation"
	case *tracing.CustomSpanData:
		return data.Name
	case nil:
		return "unknown_task"
	default:
		return data.Type()
	}
}

func convertMessages(messages []map[string]any) []sdk.Message {
	if len(messages) == 0 {
		return nil
	}
	out := make([]sdk.Message, len(messages))
	for i, msg := range messages {
		content, _ := msg["content"].(string)
		role, _ := msg["role"].(string)
		if role == "" {
			role = "user"
		}
		out[i] = sdk.Message{Index: i, Content: content, Role: role}
	}
	return out
}

func extractUsage(u map[string]any) sdk.Usage {
	return sdk.Usage{
		PromptTokens:     asInt(u["input_tokens"]),
		CompletionTokens: asInt(u["output_tokens"]),
		TotalTokens:      asInt(u["total_tokens"]),
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
