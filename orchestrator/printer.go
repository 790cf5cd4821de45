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
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nlpodyssey/productintel/asyncqueue"
)

// ConsolePrinter renders progress events as they arrive.
type ConsolePrinter struct {
	w       io.Writer
	verbose bool

	startTime time.Time
	completed []string
	failed    []string
	tools     map[string]int
}

func NewConsolePrinter(w io.Writer, verbose bool) *ConsolePrinter {
	return &ConsolePrinter{
		w:       w,
		verbose: verbose,
		tools:   make(map[string]int),
	}
}

// Drain prints events until the queue is closed and empty.
func (p *ConsolePrinter) Drain(q *asyncqueue.Queue[Event]) {
	for ev := range q.All() {
		p.Print(ev)
	}
}

func (p *ConsolePrinter) Print(ev Event) {
	switch ev.Type {
	case EventRunStarted:
		p.startTime = ev.Time
		fmt.Fprintf(p.w, "Starting analysis: %s\n", shorten(ev.Detail, 240))
	case EventAgentStarted:
		fmt.Fprintf(p.w, "agent %s: started\n", ev.Agent)
	case EventToolCalled:
		p.tools[ev.Tool]++
		if p.verbose {
			fmt.Fprintf(p.w, "tool %s called by %s: %s\n", ev.Tool, ev.Agent, shorten(ev.Detail, 200))
		} else {
			fmt.Fprintf(p.w, "tool %s called by %s\n", ev.Tool, ev.Agent)
		}
	case EventAgentCompleted:
		p.completed = append(p.completed, ev.Agent)
		fmt.Fprintf(p.w, "agent %s: completed\n", ev.Agent)
		if p.verbose && ev.Detail != "" {
			fmt.Fprintf(p.w, "  output: %s\n", shorten(ev.Detail, 400))
		}
	case EventAgentFailed:
		p.failed = append(p.failed, ev.Agent)
		fmt.Fprintf(p.w, "agent %s: failed: %s\n", ev.Agent, shorten(ev.Detail, 240))
	case EventRunCompleted:
		p.summary(ev.Time)
	}
}

func (p *ConsolePrinter) summary(end time.Time) {
	fmt.Fprintln(p.w, "---")
	fmt.Fprintln(p.w, "Run summary")
	fmt.Fprintf(p.w, "  agents completed: %s\n", orNone(p.completed))
	if len(p.failed) > 0 {
		fmt.Fprintf(p.w, "  agents failed: %s\n", strings.Join(p.failed, ", "))
	}
	if !p.startTime.IsZero() {
		fmt.Fprintf(p.w, "  runtime: %s\n", end.Sub(p.startTime).Truncate(time.Millisecond))
	}
	if len(p.tools) > 0 {
		names := make([]string, 0, len(p.tools))
		for name, n := range p.tools {
			names = append(names, fmt.Sprintf("%s (%d)", name, n))
		}
		slices.Sort(names)
		fmt.Fprintf(p.w, "  tools: %s\n", strings.Join(names, ", "))
	}
}

func orNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func shorten(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
