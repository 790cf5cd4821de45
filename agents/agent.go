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

package agents

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/optional"
)

// An Agent is an AI model configured with instructions, tools and an
// optional output schema.
type Agent struct {
	// The name of the agent.
	Name string

	// Optional instructions for the agent. Used as the "system prompt" when
	// this agent is invoked.
	Instructions InstructionsGetter

	// The model to use when invoking the LLM. When missing, the run
	// configuration decides.
	Model optional.Optional[AgentModel]

	// Configures model-specific tuning parameters (e.g. temperature, top_p).
	ModelSettings modelsettings.ModelSettings

	// A list of tools that the agent can use.
	Tools []tools.Tool

	// Optional schema of the JSON document the agent produces.
	OutputSchema OutputSchema

	// Optional object that receives callbacks on lifecycle events for this agent.
	Hooks AgentHooks
}

// InstructionsGetter interface is implemented by objects that can provide
// instructions to an Agent.
type InstructionsGetter interface {
	GetInstructions(context.Context, *Agent) (string, error)
}

// InstructionsStr satisfies InstructionsGetter providing a simple constant string value.
type InstructionsStr string

func (s InstructionsStr) GetInstructions(context.Context, *Agent) (string, error) {
	return string(s), nil
}

// InstructionsFunc generates instructions dynamically, e.g. from the
// configuration loaded at startup.
type InstructionsFunc func(context.Context, *Agent) (string, error)

func (fn InstructionsFunc) GetInstructions(ctx context.Context, a *Agent) (string, error) {
	return fn(ctx, a)
}

// AgentModel is either a model name, resolved through a ModelProvider, or a
// ready Model instance.
type AgentModel struct {
	name  string
	model Model
}

func NewAgentModelName(modelName string) AgentModel {
	return AgentModel{name: modelName}
}

func NewAgentModel(m Model) AgentModel {
	if m == nil {
		panic("Model cannot be nil")
	}
	return AgentModel{model: m}
}

func (am AgentModel) ModelName() (string, bool) { return am.name, am.model == nil && am.name != "" }
func (am AgentModel) Model() (Model, bool)      { return am.model, am.model != nil }

// GetSystemPrompt returns the instructions of the agent, or an empty string
// when it has none.
func (a *Agent) GetSystemPrompt(ctx context.Context) (string, error) {
	if a.Instructions == nil {
		return "", nil
	}
	v, err := a.Instructions.GetInstructions(ctx, a)
	if err != nil {
		return "", fmt.Errorf("agent %q instructions: %w", a.Name, err)
	}
	return v, nil
}

// ToolNames lists the names of the agent tools, in declaration order.
func (a *Agent) ToolNames() []string {
	names := make([]string, len(a.Tools))
	for i, t := range a.Tools {
		names[i] = t.ToolName()
	}
	return names
}

// FindTool returns the tool with the given name.
func (a *Agent) FindTool(name string) (tools.Tool, bool) {
	i := slices.IndexFunc(a.Tools, func(t tools.Tool) bool { return t.ToolName() == name })
	if i < 0 {
		return nil, false
	}
	return a.Tools[i], true
}

// Validate reports configuration mistakes that would only surface mid-run.
func (a *Agent) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, NewUserError("agent name is required"))
	}
	seen := make(map[string]struct{}, len(a.Tools))
	for _, t := range a.Tools {
		if t == nil {
			errs = append(errs, UserErrorf("agent %q has a nil tool", a.Name))
			continue
		}
		name := t.ToolName()
		if _, ok := seen[name]; ok {
			errs = append(errs, UserErrorf("agent %q has duplicate tool %q", a.Name, name))
		}
		seen[name] = struct{}{}
	}
	return errors.Join(errs...)
}

// Clone returns a shallow copy of the agent with its own tool slice.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Tools = slices.Clone(a.Tools)
	return &c
}
