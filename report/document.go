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

// Package report holds the result document of an analysis run: its JSON
// persistence and its console summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/nlpodyssey/productintel/usage"
)

// TimestampLayout formats document timestamps (local time, microseconds).
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Specialist agent keys, in presentation order.
const (
	AgentProduct    = "product"
	AgentCompetitor = "competitor"
	AgentSentiment  = "sentiment"
)

// AgentKeys lists the specialist agents.
var AgentKeys = []string{AgentProduct, AgentCompetitor, AgentSentiment}

// Execution modes.
const (
	ModeFull   = "full"
	ModeSimple = "simple"
)

// Document is the result of one analysis run.
type Document struct {
	Query                string            `json:"query"`
	SessionID            string            `json:"session_id,omitempty"`
	Timestamp            string            `json:"timestamp"`
	SpecialistAgents     map[string]Object `json:"specialist_agents,omitempty"`
	OrchestratedAnalysis Object            `json:"orchestrated_analysis,omitempty"`
	ExecutionSummary     ExecutionSummary  `json:"execution_summary"`
	Error                string            `json:"error,omitempty"`
	SaveMetadata         *SaveMetadata     `json:"save_metadata,omitempty"`
}

type ExecutionSummary struct {
	AgentsCompleted      int          `json:"agents_completed"`
	TotalAgents          int          `json:"total_agents"`
	OrchestrationSuccess bool         `json:"orchestration_success"`
	TelemetryEnabled     bool         `json:"telemetry_enabled"`
	TelemetryContextSet  bool         `json:"telemetry_context_set"`
	ExecutionMode        string       `json:"execution_mode,omitempty"`
	Usage                *usage.Usage `json:"usage,omitempty"`
	DurationSeconds      float64      `json:"duration_seconds"`
}

type SaveMetadata struct {
	SavedAt  string `json:"saved_at"`
	SavedTo  string `json:"saved_to"`
	Pwd      string `json:"pwd"`
	Filename string `json:"filename"`
}

// Timestamp formats t for a document.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FailedDocument is the document of a run that failed as a whole.
func FailedDocument(query, sessionID string, err error, now time.Time) *Document {
	return &Document{
		Query:     query,
		SessionID: sessionID,
		Timestamp: Timestamp(now),
		Error:     err.Error(),
		ExecutionSummary: ExecutionSummary{
			TotalAgents: len(AgentKeys),
		},
	}
}

// Agent returns the result of the named specialist, or nil.
func (d *Document) Agent(name string) Object {
	return d.SpecialistAgents[name]
}

// AgentNames lists the specialists present in the document, known agents
// first.
func (d *Document) AgentNames() []string {
	names := make([]string, 0, len(d.SpecialistAgents))
	for _, k := range AgentKeys {
		if _, ok := d.SpecialistAgents[k]; ok {
			names = append(names, k)
		}
	}
	var extra []string
	for k := range d.SpecialistAgents {
		if !slices.Contains(AgentKeys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// Succeeded reports whether the run produced a usable document.
func (d *Document) Succeeded() bool {
	return d.Error == ""
}

// SuccessRate is the fraction of specialists that completed.
func (d *Document) SuccessRate() float64 {
	if d.ExecutionSummary.TotalAgents == 0 {
		return 0
	}
	return float64(d.ExecutionSummary.AgentsCompleted) / float64(d.ExecutionSummary.TotalAgents)
}

// Date is the YYYY-MM-DD prefix of the timestamp.
func (d *Document) Date() string {
	if len(d.Timestamp) < 10 {
		return d.Timestamp
	}
	return d.Timestamp[:10]
}

// Load reads a document saved by Save.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode analysis file %s: %w", path, err)
	}
	return &doc, nil
}
