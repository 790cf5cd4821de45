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
	"cmp"
	"context"
	"errors"
	"sync"
	"time"
)

type SpanError struct {
	Message string
	Data    map[string]any
}

func (err SpanError) Error() string { return cmp.Or(err.Message, "span error") }

func (err SpanError) Export() map[string]any {
	return map[string]any{
		"message": err.Message,
		"data":    err.Data,
	}
}

type Span interface {
	// Run starts the span, calls fn with a context in which the span is
	// current, and finishes the span afterwards. An error returned by fn is
	// recorded on the span.
	Run(context.Context, func(context.Context, Span) error) error

	Start(context.Context) error
	Finish(context.Context) error

	TraceID() string
	SpanID() string
	ParentID() string
	SpanData() SpanData
	SetError(err SpanError)
	Error() *SpanError
	StartedAt() time.Time
	EndedAt() time.Time
	Export() map[string]any
}

type NoOpSpan struct {
	spanData SpanData
}

func NewNoOpSpan(spanData SpanData) *NoOpSpan {
	return &NoOpSpan{spanData: spanData}
}

func (s *NoOpSpan) Run(ctx context.Context, fn func(context.Context, Span) error) error {
	return fn(ContextWithSpan(ctx, s), s)
}

func (s *NoOpSpan) Start(context.Context) error  { return nil }
func (s *NoOpSpan) Finish(context.Context) error { return nil }
func (s *NoOpSpan) TraceID() string              { return "no-op" }
func (s *NoOpSpan) SpanID() string               { return "no-op" }
func (s *NoOpSpan) ParentID() string             { return "" }
func (s *NoOpSpan) SpanData() SpanData           { return s.spanData }
func (s *NoOpSpan) SetError(SpanError)           {}
func (s *NoOpSpan) Error() *SpanError            { return nil }
func (s *NoOpSpan) StartedAt() time.Time         { return time.Time{} }
func (s *NoOpSpan) EndedAt() time.Time           { return time.Time{} }
func (s *NoOpSpan) Export() map[string]any       { return nil }

type SpanImpl struct {
	traceID   string
	spanID    string
	parentID  string
	processor Processor
	spanData  SpanData

	mu        sync.Mutex
	startedAt time.Time
	endedAt   time.Time
	err       *SpanError
}

func NewSpanImpl(
	traceID string,
	spanID string,
	parentID string,
	processor Processor,
	spanData SpanData,
) *SpanImpl {
	if spanID == "" {
		spanID = GenSpanID()
	}
	return &SpanImpl{
		traceID:   traceID,
		spanID:    spanID,
		parentID:  parentID,
		processor: processor,
		spanData:  spanData,
	}
}

func (s *SpanImpl) Run(ctx context.Context, fn func(context.Context, Span) error) (err error) {
	if err = s.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil && s.Error() == nil {
			s.SetError(SpanError{Message: err.Error()})
		}
		if e := s.Finish(ctx); e != nil {
			err = errors.Join(err, e)
		}
	}()
	return fn(ContextWithSpan(ctx, s), s)
}

func (s *SpanImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.startedAt.IsZero() {
		s.mu.Unlock()
		Logger().Warn("Span already started", "span_id", s.spanID)
		return nil
	}
	s.startedAt = time.Now()
	s.mu.Unlock()
	return s.processor.OnSpanStart(ctx, s)
}

func (s *SpanImpl) Finish(ctx context.Context) error {
	s.mu.Lock()
	if !s.endedAt.IsZero() {
		s.mu.Unlock()
		Logger().Warn("Span already finished", "span_id", s.spanID)
		return nil
	}
	s.endedAt = time.Now()
	s.mu.Unlock()
	return s.processor.OnSpanEnd(ctx, s)
}

func (s *SpanImpl) TraceID() string    { return s.traceID }
func (s *SpanImpl) SpanID() string     { return s.spanID }
func (s *SpanImpl) ParentID() string   { return s.parentID }
func (s *SpanImpl) SpanData() SpanData { return s.spanData }

func (s *SpanImpl) SetError(err SpanError) {
	s.mu.Lock()
	s.err = &err
	s.mu.Unlock()
}

func (s *SpanImpl) Error() *SpanError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SpanImpl) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *SpanImpl) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

func (s *SpanImpl) Export() map[string]any {
	var spanData map[string]any
	if s.spanData != nil {
		spanData = s.spanData.Export()
	}

	var exportedError map[string]any
	if err := s.Error(); err != nil {
		exportedError = err.Export()
	}

	var parentID any
	if s.parentID != "" {
		parentID = s.parentID
	}

	return map[string]any{
		"object":     "trace.span",
		"id":         s.spanID,
		"trace_id":   s.traceID,
		"parent_id":  parentID,
		"started_at": timeISO(s.StartedAt()),
		"ended_at":   timeISO(s.EndedAt()),
		"span_data":  spanData,
		"error":      exportedError,
	}
}

func timeISO(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
