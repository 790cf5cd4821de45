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
	"errors"
	"maps"
	"sync"
	"time"
)

// A Trace is the root level object that tracing creates. It represents a
// logical workflow, such as one product analysis.
type Trace interface {
	// Run starts the trace, calls fn with a context in which the trace is
	// current, and finishes the trace afterwards.
	Run(context.Context, func(context.Context, Trace) error) error

	Start(context.Context) error
	Finish(context.Context) error

	// TraceID returns the trace ID.
	TraceID() string

	// The Name of the workflow being traced.
	Name() string

	// Metadata attached to the trace. It must not be modified.
	Metadata() map[string]any

	// Export the trace as a map. A no-op trace exports nil.
	Export() map[string]any
}

// NoOpTrace is a no-op trace that will not be recorded.
type NoOpTrace struct{}

func NewNoOpTrace() *NoOpTrace { return &NoOpTrace{} }

func (t *NoOpTrace) Run(ctx context.Context, fn func(context.Context, Trace) error) error {
	return fn(ContextWithTrace(ctx, t), t)
}

func (t *NoOpTrace) Start(context.Context) error  { return nil }
func (t *NoOpTrace) Finish(context.Context) error { return nil }
func (t *NoOpTrace) TraceID() string              { return "no-op" }
func (t *NoOpTrace) Name() string                 { return "no-op" }
func (t *NoOpTrace) Metadata() map[string]any     { return nil }
func (t *NoOpTrace) Export() map[string]any       { return nil }

// TraceImpl is a trace that will be recorded by the tracing library.
type TraceImpl struct {
	name      string
	traceID   string
	groupID   string
	metadata  map[string]any
	processor Processor

	mu        sync.Mutex
	startedAt time.Time
	endedAt   time.Time
}

func NewTraceImpl(
	name string,
	traceID string,
	groupID string,
	metadata map[string]any,
	processor Processor,
) *TraceImpl {
	if traceID == "" {
		traceID = GenTraceID()
	}
	return &TraceImpl{
		name:      name,
		traceID:   traceID,
		groupID:   groupID,
		metadata:  maps.Clone(metadata),
		processor: processor,
	}
}

func (t *TraceImpl) Run(ctx context.Context, fn func(context.Context, Trace) error) (err error) {
	if err = t.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if e := t.Finish(ctx); e != nil {
			err = errors.Join(err, e)
		}
	}()
	return fn(ContextWithTrace(ctx, t), t)
}

func (t *TraceImpl) Start(ctx context.Context) error {
	t.mu.Lock()
	if !t.startedAt.IsZero() {
		t.mu.Unlock()
		Logger().Warn("Trace already started", "trace_id", t.traceID)
		return nil
	}
	t.startedAt = time.Now()
	t.mu.Unlock()
	return t.processor.OnTraceStart(ctx, t)
}

func (t *TraceImpl) Finish(ctx context.Context) error {
	t.mu.Lock()
	if t.startedAt.IsZero() || !t.endedAt.IsZero() {
		t.mu.Unlock()
		return nil
	}
	t.endedAt = time.Now()
	t.mu.Unlock()
	return t.processor.OnTraceEnd(ctx, t)
}

func (t *TraceImpl) TraceID() string          { return t.traceID }
func (t *TraceImpl) Name() string             { return t.name }
func (t *TraceImpl) GroupID() string          { return t.groupID }
func (t *TraceImpl) Metadata() map[string]any { return t.metadata }

func (t *TraceImpl) Export() map[string]any {
	var groupID any
	if t.groupID != "" {
		groupID = t.groupID
	}
	return map[string]any{
		"object":        "trace",
		"id":            t.traceID,
		"workflow_name": t.name,
		"group_id":      groupID,
		"metadata":      t.metadata,
	}
}
