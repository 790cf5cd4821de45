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

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// A Processor receives traces and spans as they start and finish.
type Processor interface {
	OnTraceStart(context.Context, Trace) error
	OnTraceEnd(context.Context, Trace) error
	OnSpanStart(context.Context, Span) error
	OnSpanEnd(context.Context, Span) error

	// ForceFlush exports whatever is queued.
	ForceFlush(context.Context) error
	// Shutdown flushes and releases the processor.
	Shutdown(context.Context) error
}

// An Exporter writes finished items, each a Trace or a Span, somewhere.
type Exporter interface {
	Export(ctx context.Context, items []any) error
}

// Fanout is a Processor forwarding every call to its processors, in order.
// Their errors are joined.
type Fanout struct {
	mu         sync.RWMutex
	processors []Processor
}

func NewFanout(processors ...Processor) *Fanout {
	return &Fanout{processors: slices.Clone(processors)}
}

// Set replaces the processors.
func (f *Fanout) Set(processors []Processor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processors = slices.Clone(processors)
}

func (f *Fanout) forEach(call func(Processor) error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var errs []error
	for _, p := range f.processors {
		if err := call(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) OnTraceStart(ctx context.Context, t Trace) error {
	return f.forEach(func(p Processor) error { return p.OnTraceStart(ctx, t) })
}

func (f *Fanout) OnTraceEnd(ctx context.Context, t Trace) error {
	return f.forEach(func(p Processor) error { return p.OnTraceEnd(ctx, t) })
}

func (f *Fanout) OnSpanStart(ctx context.Context, s Span) error {
	return f.forEach(func(p Processor) error { return p.OnSpanStart(ctx, s) })
}

func (f *Fanout) OnSpanEnd(ctx context.Context, s Span) error {
	return f.forEach(func(p Processor) error { return p.OnSpanEnd(ctx, s) })
}

func (f *Fanout) ForceFlush(ctx context.Context) error {
	return f.forEach(func(p Processor) error { return p.ForceFlush(ctx) })
}

func (f *Fanout) Shutdown(ctx context.Context) error {
	return f.forEach(func(p Processor) error { return p.Shutdown(ctx) })
}

// TraceProvider creates the traces and spans of the process and routes them
// to its processors.
type TraceProvider struct {
	processors *Fanout
	disabled   atomic.Bool
}

// NewTraceProvider returns a provider without processors. Setting
// PRODUCTINTEL_DISABLE_TRACING to "1" or "true" disables it.
func NewTraceProvider() *TraceProvider {
	p := &TraceProvider{processors: NewFanout()}
	switch strings.ToLower(os.Getenv("PRODUCTINTEL_DISABLE_TRACING")) {
	case "1", "true":
		p.disabled.Store(true)
	}
	return p
}

func (p *TraceProvider) SetProcessors(processors []Processor) {
	p.processors.Set(processors)
}

func (p *TraceProvider) SetDisabled(disabled bool) {
	p.disabled.Store(disabled)
}

func (p *TraceProvider) Disabled() bool {
	return p.disabled.Load()
}

// CreateTrace creates a trace without starting it. A disabled provider or
// trace yields a NoOpTrace.
func (p *TraceProvider) CreateTrace(name, traceID, groupID string, metadata map[string]any, disabled bool) Trace {
	if disabled || p.Disabled() {
		Logger().Debug("Tracing disabled, skipping trace", slog.String("name", name))
		return NewNoOpTrace()
	}
	if traceID == "" {
		traceID = GenTraceID()
	}
	Logger().Debug("Creating trace", slog.String("name", name), slog.String("trace_id", traceID))
	return NewTraceImpl(name, traceID, groupID, metadata, p.processors)
}

// CreateSpan creates a span without starting it.
//
// parent is nil, a Trace or a Span. A nil parent stands for the current span
// of ctx when it belongs to the current trace, or else the current trace.
// Without a recording parent the span is a NoOpSpan.
func (p *TraceProvider) CreateSpan(ctx context.Context, data SpanData, spanID string, parent any, disabled bool) Span {
	if disabled || p.Disabled() {
		return NewNoOpSpan(data)
	}

	var traceID, parentID string
	switch parent := parent.(type) {
	case nil:
		trace := GetCurrentTrace(ctx)
		if trace == nil || isNoOpTrace(trace) {
			Logger().Debug("No recording trace, skipping span", slog.String("type", data.Type()))
			return NewNoOpSpan(data)
		}
		traceID = trace.TraceID()
		if current := GetCurrentSpan(ctx); current != nil {
			if isNoOpSpan(current) {
				return NewNoOpSpan(data)
			}
			if current.TraceID() == traceID {
				parentID = current.SpanID()
			}
		}
	case Trace:
		if isNoOpTrace(parent) {
			return NewNoOpSpan(data)
		}
		traceID = parent.TraceID()
	case Span:
		if isNoOpSpan(parent) {
			return NewNoOpSpan(data)
		}
		traceID, parentID = parent.TraceID(), parent.SpanID()
	default:
		Logger().Error(fmt.Sprintf("Unexpected span parent %T, skipping span", parent))
		return NewNoOpSpan(data)
	}
	return NewSpanImpl(traceID, spanID, parentID, p.processors, data)
}

func isNoOpTrace(t Trace) bool {
	_, ok := t.(*NoOpTrace)
	return ok
}

func isNoOpSpan(s Span) bool {
	_, ok := s.(*NoOpSpan)
	return ok
}

// Shutdown flushes and releases the processors. Errors are logged.
func (p *TraceProvider) Shutdown(ctx context.Context) {
	Logger().Debug("Shutting down trace provider")
	if err := p.processors.Shutdown(ctx); err != nil {
		Logger().Error("Error shutting down trace provider", slog.String("error", err.Error()))
	}
}

func GenTraceID() string {
	u := uuid.New()
	return "trace_" + hex.EncodeToString(u[:])
}

func GenSpanID() string {
	u := uuid.New()
	return "span_" + hex.EncodeToString(u[:])[:24]
}

var globalTraceProvider atomic.Pointer[TraceProvider]

func init() {
	globalTraceProvider.Store(NewTraceProvider())
}

func GetTraceProvider() *TraceProvider {
	return globalTraceProvider.Load()
}

// SetTraceProvider replaces the global provider. Nil is ignored.
func SetTraceProvider(provider *TraceProvider) {
	if provider != nil {
		globalTraceProvider.Store(provider)
	}
}

// SetTraceProcessors replaces the processors of the global provider.
func SetTraceProcessors(processors []Processor) {
	GetTraceProvider().SetProcessors(processors)
}

func SetTracingDisabled(disabled bool) {
	GetTraceProvider().SetDisabled(disabled)
}
