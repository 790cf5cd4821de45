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

package tracingtesting

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nlpodyssey/productintel/tracing"
)

// Event is a processor callback seen by a Recorder.
type Event string

const (
	TraceStart Event = "trace_start"
	TraceEnd   Event = "trace_end"
	SpanStart  Event = "span_start"
	SpanEnd    Event = "span_end"
)

// Recorder is a tracing.Processor keeping everything in memory.
type Recorder struct {
	mu     sync.Mutex
	traces []tracing.Trace
	spans  []tracing.Span // finished only
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(ev Event, trace tracing.Trace, span tracing.Span) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if trace != nil {
		r.traces = append(r.traces, trace)
	}
	if span != nil {
		r.spans = append(r.spans, span)
	}
	return nil
}

func (r *Recorder) OnTraceStart(_ context.Context, t tracing.Trace) error {
	return r.record(TraceStart, t, nil)
}

func (r *Recorder) OnTraceEnd(context.Context, tracing.Trace) error {
	return r.record(TraceEnd, nil, nil)
}

func (r *Recorder) OnSpanStart(context.Context, tracing.Span) error {
	return r.record(SpanStart, nil, nil)
}

func (r *Recorder) OnSpanEnd(_ context.Context, s tracing.Span) error {
	return r.record(SpanEnd, nil, s)
}

func (r *Recorder) ForceFlush(context.Context) error { return nil }
func (r *Recorder) Shutdown(context.Context) error   { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Traces returns the started traces that export something.
func (r *Recorder) Traces() []tracing.Trace {
	r.mu.Lock()
	traces := slices.Clone(r.traces)
	r.mu.Unlock()
	return slices.DeleteFunc(traces, func(t tracing.Trace) bool { return len(t.Export()) == 0 })
}

// Spans returns the finished spans that export something, by start time.
func (r *Recorder) Spans() []tracing.Span {
	r.mu.Lock()
	spans := slices.Clone(r.spans)
	r.mu.Unlock()
	spans = slices.DeleteFunc(spans, func(s tracing.Span) bool { return len(s.Export()) == 0 })
	slices.SortStableFunc(spans, func(a, b tracing.Span) int { return a.StartedAt().Compare(b.StartedAt()) })
	return spans
}

// SpansOfType returns the data of the finished spans holding a T.
func SpansOfType[T tracing.SpanData](r *Recorder) []T {
	var out []T
	for _, s := range r.Spans() {
		if data, ok := s.SpanData().(T); ok {
			out = append(out, data)
		}
	}
	return out
}

// NormalizedSpans exports the recorded traces as trees: each span is nested
// under its parent in "children", with its type and data flattened, and
// without IDs (span IDs are kept on request), timestamps or nil values.
func (r *Recorder) NormalizedSpans(t *testing.T, keepSpanID bool) []map[string]any {
	t.Helper()

	type key struct{ trace, span string }
	nodes := make(map[key]map[string]any)
	var roots []map[string]any

	for _, tr := range r.Traces() {
		m := tr.Export()
		if m["object"] != "trace" {
			t.Fatalf(`trace %+v: want "object": "trace"`, m)
		}
		if id, _ := m["id"].(string); !strings.HasPrefix(id, "trace_") {
			t.Fatalf(`trace %+v: want "id": "trace_..."`, m)
		}
		delete(m, "object")
		delete(m, "id")
		if md, ok := m["metadata"].(map[string]any); ok && len(md) == 0 {
			delete(m, "metadata")
		}
		dropNils(m)
		nodes[key{tr.TraceID(), ""}] = m
		roots = append(roots, m)
	}

	// Spans may start at the same instant: link them once all nodes exist.
	type edge struct {
		child  map[string]any
		parent key
	}
	var edges []edge
	for _, s := range r.Spans() {
		m := s.Export()
		for _, field := range []string{"started_at", "ended_at"} {
			v, _ := m[field].(string)
			if _, err := time.Parse(time.RFC3339Nano, v); err != nil {
				t.Fatalf("span %+v: bad %q: %v", m, field, err)
			}
			delete(m, field)
		}
		parentID, _ := m["parent_id"].(string)
		data, _ := m["span_data"].(map[string]any)
		for _, field := range []string{"object", "parent_id", "span_data", "trace_id"} {
			delete(m, field)
		}
		if !keepSpanID {
			delete(m, "id")
		}

		m["type"] = data["type"]
		delete(data, "type")
		dropNils(m)
		dropNils(data)
		if len(data) > 0 {
			m["data"] = data
		}
		nodes[key{s.TraceID(), s.SpanID()}] = m
		edges = append(edges, edge{m, key{s.TraceID(), parentID}})
	}

	for _, e := range edges {
		parent, ok := nodes[e.parent]
		if !ok {
			t.Fatalf("parent %v of span %+v not recorded", e.parent, e.child)
		}
		children, _ := parent["children"].([]map[string]any)
		parent["children"] = append(children, e.child)
	}
	return roots
}

func dropNils(m map[string]any) {
	maps.DeleteFunc(m, func(_ string, value any) bool {
		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.Invalid:
			return true
		case reflect.Interface, reflect.Slice, reflect.Map, reflect.Pointer:
			return v.IsNil()
		}
		return false
	})
}
