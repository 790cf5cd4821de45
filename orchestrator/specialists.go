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

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/config"
	"github.com/nlpodyssey/productintel/report"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/tools/calculator"
	"github.com/nlpodyssey/productintel/tools/search"
)

// OrchestratorKey names the synthesis agent in sessions and events.
const OrchestratorKey = "orchestrator"

// A Specialist is one of the agents run in parallel before synthesis.
type Specialist struct {
	// Key of the result in the document's specialist_agents.
	Key       string
	PromptKey string
	Search    search.Kind
	Schema    agents.OutputSchema
	task      string
}

// Task is the request sent to the specialist for the product query.
func (s Specialist) Task(query string) string {
	return fmt.Sprintf(s.task, query)
}

// Specialists lists the specialists in presentation order.
var Specialists = []Specialist{
	{
		Key:       report.AgentProduct,
		PromptKey: config.ProductDataPrompt,
		Search:    search.KindProduct,
		Schema:    agents.OutputSchemaFor[ProductAnalysis](agents.OutputSchemaOpts{}),
		task:      "Analyze product data for %s. Focus on pricing, availability, and popularity.",
	},
	{
		Key:       report.AgentCompetitor,
		PromptKey: config.CompetitorAnalystPrompt,
		Search:    search.KindCompetitor,
		Schema:    agents.OutputSchemaFor[CompetitorAnalysis](agents.OutputSchemaOpts{}),
		task:      "Analyze competitive landscape for %s. Identify competitors and market positioning.",
	},
	{
		Key:       report.AgentSentiment,
		PromptKey: config.SentimentAnalystPrompt,
		Search:    search.KindSentiment,
		Schema:    agents.OutputSchemaFor[SentimentAnalysis](agents.OutputSchemaOpts{}),
		task:      "Analyze customer sentiment for %s. Extract themes from reviews and feedback.",
	},
}

var strategicSchema = agents.OutputSchemaFor[StrategicAnalysis](agents.OutputSchemaOpts{})

// newAgent builds an agent from a configured prompt.
func newAgent(cfg *config.Config, name, promptKey string, model agents.Model, schema agents.OutputSchema, extra ...tools.Tool) (*agents.Agent, error) {
	prompt := cfg.Prompt(promptKey)
	if prompt == "" {
		return nil, fmt.Errorf("prompt %s is not configured", promptKey)
	}
	return agents.New(name).
		WithInstructions(prompt).
		WithModelInstance(model).
		WithOutputSchema(schema).
		WithTools(append(extra, calculator.Tool())...), nil
}

func (o *Orchestrator) specialistAgent(s Specialist, model agents.Model) (*agents.Agent, error) {
	var extra []tools.Tool
	if o.Searcher != nil {
		extra = append(extra, o.Searcher.Tool(s.Search))
	}
	return newAgent(o.Config, s.Key, s.PromptKey, model, s.Schema, extra...)
}

func (o *Orchestrator) synthesisAgent(model agents.Model) (*agents.Agent, error) {
	return newAgent(o.Config, OrchestratorKey, config.OrchestratorPrompt, model, strategicSchema)
}
