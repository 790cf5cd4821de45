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
	"bytes"
	"testing"
	"time"

	"github.com/nlpodyssey/productintel/asyncqueue"
	"github.com/stretchr/testify/assert"
)

func TestConsolePrinter(t *testing.T) {
	start := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	q := asyncqueue.New[Event]()
	for _, ev := range []Event{
		{Type: EventRunStarted, Time: start, Detail: "Adidas Samba sneakers"},
		{Type: EventAgentStarted, Agent: "product"},
		{Type: EventToolCalled, Agent: "product", Tool: "calculator", Detail: `{"expression": "1+1"}`},
		{Type: EventToolCalled, Agent: "product", Tool: "calculator"},
		{Type: EventAgentCompleted, Agent: "product", Detail: "{}"},
		{Type: EventAgentFailed, Agent: "sentiment", Detail: "throttled"},
		{Type: EventRunCompleted, Time: start.Add(1500 * time.Millisecond)},
	} {
		q.Put(ev)
	}
	q.Close()

	var buf bytes.Buffer
	NewConsolePrinter(&buf, false).Drain(q)

	assert.Equal(t, "Starting analysis: Adidas Samba sneakers\n"+
		"agent product: started\n"+
		"tool calculator called by product\n"+
		"tool calculator called by product\n"+
		"agent product: completed\n"+
		"agent sentiment: failed: throttled\n"+
		"---\n"+
		"Run summary\n"+
		"  agents completed: product\n"+
		"  agents failed: sentiment\n"+
		"  runtime: 1.5s\n"+
		"  tools: calculator (2)\n", buf.String())
}

func TestConsolePrinter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsolePrinter(&buf, true)
	p.Print(Event{Type: EventToolCalled, Agent: "competitor", Tool: "advanced_competitor_search", Detail: `{"query": "Samba"}`})
	p.Print(Event{Type: EventAgentCompleted, Agent: "competitor", Detail: "line one\nline two"})
	p.Print(Event{Type: EventRunCompleted})

	assert.Equal(t, "tool advanced_competitor_search called by competitor: {\"query\": \"Samba\"}\n"+
		"agent competitor: completed\n"+
		"  output: line one line two\n"+
		"---\n"+
		"Run summary\n"+
		"  agents completed: competitor\n"+
		"  tools: advanced_competitor_search (1)\n", buf.String())
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "a b", shorten("  a \n b ", 10))
	assert.Equal(t, "abc…", shorten("abcdef", 3))
}
