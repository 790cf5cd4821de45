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

// Package memory persists the conversations of the analysis agents, so that
// a session started with a given ID can be resumed by later runs.
package memory

import (
	"context"

	"github.com/nlpodyssey/productintel/types/message"
)

// A Session is the conversation history the agent runner reads before a run
// and extends after it.
type Session interface {
	SessionID(context.Context) string

	// GetItems returns the latest limit items in chronological order, or
	// all of them when limit <= 0.
	GetItems(ctx context.Context, limit int) ([]message.Item, error)

	AddItems(ctx context.Context, items []message.Item) error

	// PopItem removes and returns the most recent item, or nil when the
	// history is empty.
	PopItem(context.Context) (*message.Item, error)

	ClearSession(context.Context) error
}

// SessionKey identifies one agent's conversation within an analysis
// session, e.g. "session-20250101-120000:product".
func SessionKey(sessionID, agent string) string {
	return sessionID + ":" + agent
}

// Conversation is the Session of one agent in one analysis session.
type Conversation struct {
	store     *SQLStore
	sessionID string
	agent     string
}

func (c *Conversation) SessionID(context.Context) string {
	return SessionKey(c.sessionID, c.agent)
}

func (c *Conversation) Agent() string { return c.agent }

func (c *Conversation) GetItems(ctx context.Context, limit int) ([]message.Item, error) {
	return c.store.items(ctx, c.sessionID, c.agent, limit)
}

func (c *Conversation) AddItems(ctx context.Context, items []message.Item) error {
	return c.store.addItems(ctx, c.sessionID, c.agent, items)
}

func (c *Conversation) PopItem(ctx context.Context) (*message.Item, error) {
	return c.store.popItem(ctx, c.sessionID, c.agent)
}

func (c *Conversation) ClearSession(ctx context.Context) error {
	return c.store.clear(ctx, c.sessionID, c.agent)
}
