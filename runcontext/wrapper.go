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

package runcontext

import (
	"context"

	"github.com/nlpodyssey/productintel/usage"
)

// Wrapper wraps the context object passed to a run, together with the
// identity of the agent being run and the usage of the run so far.
//
// NOTE: Contexts are not passed to the LLM. They're a way to pass dependencies
// and data to code you implement, like tool functions and run hooks.
type Wrapper struct {
	// Optional context object, passed by the caller of the run.
	Context any

	// Session the run belongs to. Tools use it to tag their artifacts.
	SessionID string

	// Name of the agent currently running.
	AgentName string

	// The usage of the agent run so far.
	Usage *usage.Usage
}

func NewWrapper(ctx any) *Wrapper {
	return &Wrapper{
		Context: ctx,
		Usage:   usage.NewUsage(),
	}
}

type wrapperContextKey struct{}

// WithWrapper returns a Context carrying w, so tool handlers can reach it.
func WithWrapper(ctx context.Context, w *Wrapper) context.Context {
	return context.WithValue(ctx, wrapperContextKey{}, w)
}

// FromContext returns the Wrapper stored in ctx, if any.
func FromContext(ctx context.Context) (*Wrapper, bool) {
	w, ok := ctx.Value(wrapperContextKey{}).(*Wrapper)
	return w, ok && w != nil
}
