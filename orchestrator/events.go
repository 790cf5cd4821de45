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

package orchestrator

import (
	"context"
	"time"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/asyncqueue"
	"github.com/nlpodyssey/productintel/tools"
)

type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventAgentStarted   EventType = "agent.started"
	EventToolCalled     EventType = "tool.called"
	EventAgentCompleted EventType = "agent.completed"
	EventAgentFailed    EventType = "agent.failed"
	EventRunCompleted   EventType = "run.completed"
)

// Event reports the progress of an analysis.
type Event struct {
	Type  EventType
	Time  time.Time
	Agent string
	// Tool is set on EventToolCalled.
	Tool string
	// Detail holds the query, the tool arguments, the final output or the
	// error message, depending on Type.
	Detail string
}

// eventHooks forwards the run lifecycle of one agent to the event queue.
type eventHooks struct {
	agents.NoOpRunHooks
	queue *asyncqueue.Queue[Event]
	key   string
	now   func() time.Time
}

func (h eventHooks) emit(typ EventType, tool, detail string) {
	if h.queue == nil {
		return
	}
	h.queue.Put(Event{Type: typ, Time: h.now(), Agent: h.key, Tool: tool, Detail: detail})
}

func (h eventHooks) OnAgentStart(context.Context, *agents.Agent) error {
	h.emit(EventAgentStarted, "", "")
	return nil
}

func (h eventHooks) OnToolStart(_ context.Context, _ *agents.Agent, tool tools.Tool, arguments string) error {
	h.emit(EventToolCalled, tool.ToolName(), arguments)
	return nil
}

func (h eventHooks) OnAgentEnd(_ context.Context, _ *agents.Agent, output string) error {
	h.emit(EventAgentCompleted, "", output)
	return nil
}
