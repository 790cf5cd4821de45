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
	"testing"

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentBuilder_Chaining(t *testing.T) {
	instr := "hello"
	tool := tools.Function{Name: "t"}

	agent := New("agent").
		WithInstructions(instr).
		WithTools(tool).
		AddTool(tools.Function{Name: "u"}).
		WithModel("model").
		WithModelSettings(modelsettings.ModelSettings{Temperature: optional.Value(0.3)})

	assert.Equal(t, "agent", agent.Name)
	assert.Equal(t, InstructionsStr(instr), agent.Instructions)
	assert.Equal(t, []string{"t", "u"}, agent.ToolNames())
	assert.Equal(t, optional.Value(NewAgentModelName("model")), agent.Model)
	assert.Equal(t, optional.Value(0.3), agent.ModelSettings.Temperature)
}

func TestAgentBuilder_ReturnsSamePointer(t *testing.T) {
	agent := New("foo")
	returned := agent.WithInstructions("bar")
	assert.Same(t, agent, returned)
}

func TestAgentBuilder_WithInstructionsFunc(t *testing.T) {
	agent := New("").WithInstructionsFunc(func(ctx context.Context, a *Agent) (string, error) {
		return "dynamic", nil
	})
	v, err := agent.GetSystemPrompt(t.Context())
	assert.NoError(t, err)
	assert.Equal(t, "dynamic", v)
}

func TestAgent_GetSystemPromptWithoutInstructions(t *testing.T) {
	v, err := New("a").GetSystemPrompt(t.Context())
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestAgent_Validate(t *testing.T) {
	assert.NoError(t, New("a").WithTools(tools.Function{Name: "x"}).Validate())

	err := New("").WithTools(tools.Function{Name: "x"}, tools.Function{Name: "x"}).Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "agent name is required")
	assert.ErrorContains(t, err, `duplicate tool "x"`)
	assert.ErrorAs(t, err, &UserError{})
}

func TestAgent_FindToolAndClone(t *testing.T) {
	agent := New("a").WithTools(tools.Function{Name: "x"})

	tool, ok := agent.FindTool("x")
	require.True(t, ok)
	assert.Equal(t, "x", tool.ToolName())

	_, ok = agent.FindTool("y")
	assert.False(t, ok)

	clone := agent.Clone()
	clone.AddTool(tools.Function{Name: "y"})
	assert.Len(t, agent.Tools, 1)
	assert.Len(t, clone.Tools, 2)
}

func TestAgentModel(t *testing.T) {
	name, ok := NewAgentModelName("gpt-4o").ModelName()
	assert.True(t, ok)
	assert.Equal(t, "gpt-4o", name)

	_, ok = NewAgentModelName("gpt-4o").Model()
	assert.False(t, ok)

	assert.Panics(t, func() { NewAgentModel(nil) })
}
