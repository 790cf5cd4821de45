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

package usage

import (
	"context"
	"sync"
)

// Usage counts requests and tokens across model calls. It is safe to Add
// from the concurrently running specialist agents.
type Usage struct {
	mu sync.Mutex

	// Total requests made to the LLM API.
	Requests uint64 `json:"requests"`

	// Total input tokens sent, across all requests.
	InputTokens uint64 `json:"input_tokens"`

	// Total output tokens received, across all requests.
	OutputTokens uint64 `json:"output_tokens"`

	// Total tokens sent and received, across all requests.
	TotalTokens uint64 `json:"total_tokens"`
}

func NewUsage() *Usage {
	return new(Usage)
}

func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	snapshot := other.Snapshot()

	u.mu.Lock()
	defer u.mu.Unlock()
	u.Requests += snapshot.Requests
	u.InputTokens += snapshot.InputTokens
	u.OutputTokens += snapshot.OutputTokens
	u.TotalTokens += snapshot.TotalTokens
}

// Snapshot returns a copy of the counters, safe to read or marshal while the
// original keeps being updated.
func (u *Usage) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Usage{
		Requests:     u.Requests,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

// Map exports the counters for JSON documents and trace spans.
func (u *Usage) Map() map[string]any {
	s := u.Snapshot()
	return map[string]any{
		"requests":      s.Requests,
		"input_tokens":  s.InputTokens,
		"output_tokens": s.OutputTokens,
		"total_tokens":  s.TotalTokens,
	}
}

// usageContextKey is the key type for Usage values in Contexts.
type usageContextKey struct{}

// NewContext returns a new Context that carries the given Usage.
func NewContext(ctx context.Context, u *Usage) context.Context {
	return context.WithValue(ctx, usageContextKey{}, u)
}

// FromContext returns the Usage value stored in ctx, if any.
func FromContext(ctx context.Context) (*Usage, bool) {
	u, ok := ctx.Value(usageContextKey{}).(*Usage)
	return u, ok
}
