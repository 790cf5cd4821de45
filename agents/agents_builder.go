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
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/optional"
)

// New returns an Agent named name. The With* methods mutate the agent in
// place and return it, so calls can be chained.
func New(name string) *Agent {
	return &Agent{Name: name}
}

func (a *Agent) WithInstructions(instr string) *Agent {
	a.Instructions = InstructionsStr(instr)
	return a
}

func (a *Agent) WithInstructionsFunc(fn InstructionsFunc) *Agent {
	a.Instructions = fn
	return a
}

// WithModel refers to a model by name. The name is resolved by the
// ModelProvider of the run.
func (a *Agent) WithModel(name string) *Agent {
	a.Model = optional.Value(NewAgentModelName(name))
	return a
}

func (a *Agent) WithModelInstance(m Model) *Agent {
	a.Model = optional.Value(NewAgentModel(m))
	return a
}

func (a *Agent) WithModelSettings(s modelsettings.ModelSettings) *Agent {
	a.ModelSettings = s
	return a
}

// WithTools replaces the agent tools.
func (a *Agent) WithTools(t ...tools.Tool) *Agent {
	a.Tools = t
	return a
}

// AddTool appends t to the agent tools.
func (a *Agent) AddTool(t tools.Tool) *Agent {
	a.Tools = append(a.Tools, t)
	return a
}

func (a *Agent) WithOutputSchema(s OutputSchema) *Agent {
	a.OutputSchema = s
	return a
}
