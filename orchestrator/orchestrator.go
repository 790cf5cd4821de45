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

// Package orchestrator runs the specialist agents of an analysis in
// parallel, hands their findings to the synthesis agent and assembles the
// result document.
package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/asyncqueue"
	"github.com/nlpodyssey/productintel/asynctask"
	"github.com/nlpodyssey/productintel/config"
	"github.com/nlpodyssey/productintel/memory"
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/report"
	"github.com/nlpodyssey/productintel/tools/search"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/nlpodyssey/productintel/usage"
)

// DefaultWorkflowName names the analysis trace when the configuration
// gives no service name.
const DefaultWorkflowName = "Product analysis"

// Raw model text kept in a result is cut after this many characters.
const rawResponseLimit = 1000

// Orchestrator runs analyses. Config and Provider are required.
type Orchestrator struct {
	Config   *config.Config
	Provider agents.ModelProvider

	// Store persists agent conversations. Nil keeps no history.
	Store memory.Store

	// Searcher backs the search tools. Nil runs the specialists without
	// them.
	Searcher *search.Searcher

	// Callback receives the finished document.
	Callback CallbackPublisher

	// Events receives progress events. The orchestrator never closes it.
	Events *asyncqueue.Queue[Event]

	// Simple disables telemetry and session tracking.
	Simple bool

	Now func() time.Time
}

type agentRun struct {
	key    string
	input  string
	agent  *agents.Agent
	runner agents.Runner
	schema agents.OutputSchema
}

// DefaultSessionID derives a session id from the start time of a run.
func DefaultSessionID(t time.Time) string {
	return "session-" + t.Format("20060102-150405")
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Analyze runs a full analysis of query. It always returns a document:
// failures of single agents are recorded inside it, and a failure of the
// pipeline as a whole yields a document with the top-level error set.
func (o *Orchestrator) Analyze(ctx context.Context, query, sessionID string) *report.Document {
	start := o.now()
	telemetry := !o.Simple && o.Config.Telemetry.Enabled
	mode := report.ModeFull
	if o.Simple {
		mode = report.ModeSimple
		sessionID = ""
	} else if sessionID == "" {
		sessionID = DefaultSessionID(start)
	}

	logger := agents.Logger().With(slog.String("session_id", sessionID))
	logger.Info("Starting orchestrated analysis", slog.String("query", query), slog.String("mode", mode))
	o.emit(Event{Type: EventRunStarted, Detail: query})

	total := usage.NewUsage()
	ctx = usage.NewContext(ctx, total)

	var doc *report.Document
	err := tracing.RunTrace(ctx, tracing.TraceParams{
		WorkflowName: cmp.Or(o.Config.Telemetry.ServiceName, DefaultWorkflowName),
		GroupID:      sessionID,
		Metadata: tracing.SessionMetadata(sessionID,
			o.Config.Telemetry.ExperimentID, o.Config.Telemetry.ConversationTopic),
		Disabled: !telemetry,
	}, func(ctx context.Context, _ tracing.Trace) (err error) {
		doc, err = o.analyze(ctx, query, sessionID, telemetry)
		return err
	})
	if err != nil {
		logger.Error("Analysis failed", slog.String("error", err.Error()))
		doc = report.FailedDocument(query, sessionID, err, o.now())
		doc.ExecutionSummary.TelemetryEnabled = telemetry
	} else {
		logger.Info("Orchestrated analysis completed",
			slog.Int("agents_completed", doc.ExecutionSummary.AgentsCompleted),
			slog.Bool("orchestration_success", doc.ExecutionSummary.OrchestrationSuccess))
	}

	doc.ExecutionSummary.ExecutionMode = mode
	doc.ExecutionSummary.Usage = total
	doc.ExecutionSummary.DurationSeconds = math.Round(o.now().Sub(start).Seconds()*1000) / 1000

	o.emit(Event{Type: EventRunCompleted})
	o.publish(ctx, doc)
	return doc
}

func (o *Orchestrator) analyze(ctx context.Context, query, sessionID string, telemetry bool) (*report.Document, error) {
	if o.Provider == nil {
		return nil, errors.New("no model provider configured")
	}
	name := o.Config.Model.Name()
	model, err := o.Provider.GetModel(name)
	if err != nil {
		return nil, fmt.Errorf("initialize model %s: %w", name, err)
	}

	runs := make([]agentRun, 0, len(Specialists))
	for _, s := range Specialists {
		agent, err := o.specialistAgent(s, model)
		if err != nil {
			return nil, fmt.Errorf("initialize %s agent: %w", s.Key, err)
		}
		run, err := o.newRun(ctx, s.Key, agent, s.Schema, sessionID, telemetry)
		if err != nil {
			return nil, err
		}
		run.input = s.Task(query)
		runs = append(runs, run)
	}

	synth, err := o.synthesisAgent(model)
	if err != nil {
		return nil, fmt.Errorf("initialize orchestrator agent: %w", err)
	}
	synthRun, err := o.newRun(ctx, OrchestratorKey, synth, strategicSchema, sessionID, telemetry)
	if err != nil {
		return nil, err
	}

	results := o.runSpecialists(ctx, runs)
	orchestrated := o.synthesize(ctx, query, synthRun, results)

	return &report.Document{
		Query:                query,
		SessionID:            sessionID,
		Timestamp:            report.Timestamp(o.now()),
		SpecialistAgents:     results,
		OrchestratedAnalysis: orchestrated,
		ExecutionSummary: report.ExecutionSummary{
			AgentsCompleted:      completed(results),
			TotalAgents:          len(results),
			OrchestrationSuccess: !orchestrated.Failed(),
			TelemetryEnabled:     telemetry,
			TelemetryContextSet:  telemetry && tracing.GetCurrentTrace(ctx) != nil,
		},
	}, nil
}

func (o *Orchestrator) newRun(
	ctx context.Context,
	key string,
	agent *agents.Agent,
	schema agents.OutputSchema,
	sessionID string,
	telemetry bool,
) (agentRun, error) {
	m := o.Config.Model
	settings := modelsettings.ModelSettings{
		Temperature: optional.Value(m.Temperature),
	}
	if m.MaxTokens > 0 {
		settings.MaxTokens = optional.Value(m.MaxTokens)
	}
	if m.TopP > 0 {
		settings.TopP = optional.Value(m.TopP)
	}

	cfg := agents.RunConfig{
		ModelSettings:       &settings,
		MaxTurns:            m.MaxTurns,
		Hooks:               eventHooks{queue: o.Events, key: key, now: o.now},
		SessionID:           sessionID,
		SessionHistoryLimit: o.Config.Session.HistoryLimit,
		TracingDisabled:     !telemetry,
	}
	if o.Store != nil && sessionID != "" {
		session, err := o.Store.Conversation(ctx, sessionID, key)
		if err != nil {
			return agentRun{}, fmt.Errorf("open %s session: %w", key, err)
		}
		cfg.Session = session
	}

	return agentRun{
		key:    key,
		agent:  agent,
		runner: agents.Runner{Config: cfg},
		schema: schema,
	}, nil
}

// runSpecialists runs every specialist concurrently and waits for all of
// them.
func (o *Orchestrator) runSpecialists(ctx context.Context, runs []agentRun) map[string]report.Object {
	results := make(map[string]report.Object, len(runs))
	_ = tracing.CustomSpan(ctx, tracing.CustomSpanParams{
		Name: "specialist_agents",
		Data: map[string]any{"agents": len(runs)},
	}, func(ctx context.Context, _ tracing.Span) error {
		tasks := make([]*asynctask.Task[report.Object], len(runs))
		for i, run := range runs {
			tasks[i] = asynctask.CreateTask(ctx, func(ctx context.Context) (report.Object, error) {
				return o.runSpecialist(ctx, run), nil
			})
		}

		for i, res := range asynctask.AwaitAll(tasks...) {
			key := runs[i].key
			if res.Error != nil {
				results[key] = o.specialistFailure(key, res.Error)
				continue
			}
			results[key] = res.Value
		}
		return nil
	})
	return results
}

func (o *Orchestrator) runSpecialist(ctx context.Context, run agentRun) report.Object {
	result, text, err := o.execute(ctx, run)
	if err != nil {
		return o.specialistFailure(run.key, err)
	}
	result["agent_name"] = run.key
	result["raw_response"] = specialistRaw(text)
	agents.Logger().Info(capitalize(run.key)+" agent completed successfully",
		slog.Bool("json_extracted", !result.Failed()))
	return result
}

func (o *Orchestrator) specialistFailure(key string, err error) report.Object {
	agents.Logger().Error(capitalize(key)+" agent failed", slog.String("error", err.Error()))
	o.emit(Event{Type: EventAgentFailed, Agent: key, Detail: err.Error()})
	return report.Object{
		"error":        err.Error(),
		"agent":        key,
		"raw_response": "Failed to get response",
	}
}

// SynthesisInput is the request sent to the orchestrator agent.
func SynthesisInput(query string, results map[string]report.Object) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MULTI-AGENT ANALYSIS SYNTHESIS REQUEST\n\nPRODUCT: %s\n\nSPECIALIST AGENT RESULTS:\n", query)
	for _, section := range []struct{ title, key string }{
		{"PRODUCT INTELLIGENCE", report.AgentProduct},
		{"COMPETITIVE INTELLIGENCE", report.AgentCompetitor},
		{"CUSTOMER SENTIMENT", report.AgentSentiment},
	} {
		result := results[section.key]
		if result == nil {
			result = report.Object{}
		}
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", section.title, agents.PrettyJSON(result))
	}
	b.WriteString("\nPlease synthesize these specialist findings into a comprehensive strategic analysis.\n")
	return b.String()
}

func (o *Orchestrator) synthesize(ctx context.Context, query string, run agentRun, results map[string]report.Object) report.Object {
	agents.Logger().Info("Running orchestrator synthesis")

	run.input = SynthesisInput(query, results)
	result, text, err := o.execute(ctx, run)
	if err != nil {
		agents.Logger().Error("Orchestrator failed", slog.String("error", err.Error()))
		o.emit(Event{Type: EventAgentFailed, Agent: OrchestratorKey, Detail: err.Error()})
		return report.Object{"error": err.Error(), "agent": OrchestratorKey}
	}
	result["orchestrator_raw_response"] = truncate(text, rawResponseLimit)
	agents.Logger().Info("Orchestrator synthesis completed")
	return result
}

// execute runs one agent and extracts the JSON object from its answer.
// Schema violations are recorded in the object, not returned.
func (o *Orchestrator) execute(ctx context.Context, run agentRun) (report.Object, string, error) {
	if timeout := o.Config.Model.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := run.runner.Run(ctx, run.agent, run.input)
	if err != nil {
		return nil, "", err
	}
	text := res.FinalOutput
	agents.Logger().Debug("Agent raw response",
		slog.String("agent", run.key),
		slog.String("text", truncate(text, 200)))

	result := report.Object(agents.ExtractJSON(text))
	if run.schema != nil && !result.Failed() {
		problems, err := run.schema.Problems(map[string]any(result))
		if err != nil {
			agents.Logger().Warn("Output validation skipped",
				slog.String("agent", run.key),
				slog.String("error", err.Error()))
		} else if len(problems) > 0 {
			result["validation_errors"] = problems
		}
	}
	return result, text, nil
}

func (o *Orchestrator) emit(ev Event) {
	if o.Events == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = o.now()
	}
	o.Events.Put(ev)
}

func (o *Orchestrator) publish(ctx context.Context, doc *report.Document) {
	if o.Callback == nil {
		return
	}
	err := o.Callback.Publish(ctx, CallbackEvent{
		Type:      EventAnalysisCompleted,
		Timestamp: o.now().UTC(),
		Payload:   doc,
		Metadata:  map[string]any{"session_id": doc.SessionID, "query": doc.Query},
	})
	if err != nil {
		agents.Logger().Warn("Callback failed", slog.String("error", err.Error()))
	}
}

func completed(results map[string]report.Object) int {
	n := 0
	for _, r := range results {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// truncate keeps the first n runes of s, marking a cut with "...".
func truncate(s string, n int) string {
	if head, cut := cutRunes(s, n); cut {
		return head + "..."
	}
	return s
}

// specialistRaw is truncate, except that a text of exactly
// rawResponseLimit runes is marked as cut too.
func specialistRaw(text string) string {
	if utf8.RuneCountInString(text) < rawResponseLimit {
		return text
	}
	head, _ := cutRunes(text, rawResponseLimit)
	return head + "..."
}

// cutRunes returns the first n runes of s and whether s was longer.
func cutRunes(s string, n int) (string, bool) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
