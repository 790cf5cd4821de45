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

package agentstesting

import (
	"context"
	"fmt"
	"sync"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/usage"
)

// FakeModel replays scripted turn outputs. It is safe for concurrent use,
// so one instance can back several agents running in parallel.
type FakeModel struct {
	TracingEnabled bool

	mu             sync.Mutex
	turnOutputs    []FakeModelTurnOutput
	lastTurnArgs   FakeModelLastTurnArgs
	calls          int
	hardcodedUsage *usage.Usage
	respond        func(agents.ModelResponseParams) FakeModelTurnOutput
}

type FakeModelTurnOutput struct {
	Value []message.Item
	Error error
}

type FakeModelLastTurnArgs struct {
	SystemInstructions string
	Input              []message.Item
	ModelSettings      modelsettings.ModelSettings
	Tools              []tools.Tool
	OutputSchema       agents.OutputSchema
}

func NewFakeModel(tracingEnabled bool, initialOutput *FakeModelTurnOutput) *FakeModel {
	m := &FakeModel{TracingEnabled: tracingEnabled}
	if initialOutput != nil && (initialOutput.Value != nil || initialOutput.Error != nil) {
		m.turnOutputs = []FakeModelTurnOutput{*initialOutput}
	}
	return m
}

// NewRespondingFakeModel builds a FakeModel that computes each turn from
// the request, for tests where call order is not deterministic.
func NewRespondingFakeModel(respond func(agents.ModelResponseParams) FakeModelTurnOutput) *FakeModel {
	return &FakeModel{respond: respond}
}

func (m *FakeModel) SetHardcodedUsage(u *usage.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hardcodedUsage = &usage.Usage{
		Requests:     u.Requests,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnOutputs = append(m.turnOutputs, output)
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnOutputs = append(m.turnOutputs, outputs...)
}

func (m *FakeModel) LastTurnArgs() FakeModelLastTurnArgs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTurnArgs
}

// Calls returns the number of GetResponse invocations so far.
func (m *FakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *FakeModel) nextOutput(params agents.ModelResponseParams) FakeModelTurnOutput {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastTurnArgs = FakeModelLastTurnArgs{
		SystemInstructions: params.SystemInstructions,
		Input:              params.Input,
		ModelSettings:      params.ModelSettings,
		Tools:              params.Tools,
		OutputSchema:       params.OutputSchema,
	}

	if m.respond != nil {
		return m.respond(params)
	}
	if len(m.turnOutputs) == 0 {
		return FakeModelTurnOutput{}
	}
	v := m.turnOutputs[0]
	m.turnOutputs = m.turnOutputs[1:]
	return v
}

func (m *FakeModel) usage() *usage.Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := usage.NewUsage()
	u.Add(m.hardcodedUsage)
	return u
}

func (m *FakeModel) GetResponse(ctx context.Context, params agents.ModelResponseParams) (*agents.ModelResponse, error) {
	var modelResponse *agents.ModelResponse
	err := tracing.GenerationSpan(
		ctx, tracing.GenerationSpanParams{SpanOptions: tracing.SpanOptions{Disabled: !m.TracingEnabled}},
		func(ctx context.Context, span tracing.Span) error {
			output := m.nextOutput(params)

			if err := output.Error; err != nil {
				span.SetError(tracing.SpanError{
					Message: "Error",
					Data: map[string]any{
						"name":    fmt.Sprintf("%T", err),
						"message": err.Error(),
					},
				})
				return err
			}

			modelResponse = &agents.ModelResponse{
				Output: output.Value,
				Usage:  m.usage(),
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return modelResponse, nil
}
