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

type traceContextKey struct{}
type spanContextKey struct{}

// ContextWithTrace returns a context in which t is the current trace.
func ContextWithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// ContextWithSpan returns a context in which s is the current span.
func ContextWithSpan(ctx context.Context, s Span) context.Context {
	return context.WithValue(ctx, spanContextKey{}, s)
}

// GetCurrentTrace returns the currently active trace, if present.
func GetCurrentTrace(ctx context.Context) Trace {
	t, _ := ctx.Value(traceContextKey{}).(Trace)
	return t
}

// GetCurrentSpan returns the currently active span, if present.
func GetCurrentSpan(ctx context.Context) Span {
	s, _ := ctx.Value(spanContextKey{}).(Span)
	return s
}
