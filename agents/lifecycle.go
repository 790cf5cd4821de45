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

	"github.com/nlpodyssey/productintel/tools"
)

// RunHooks is implemented by an object that receives callbacks on various
// lifecycle events in an agent run.
type RunHooks interface {
	// OnAgentStart is called before the agent is invoked.
	OnAgentStart(ctx context.Context, agent *Agent) error

	// OnAgentEnd is called when the agent produces a final output.
	OnAgentEnd(ctx context.Context, agent *Agent, output string) error

	// OnLLMStart is called just before the model is invoked, once per turn.
	OnLLMStart(ctx context.Context, agent *Agent, turn int) error

	// OnLLMEnd is called after the model answered.
	OnLLMEnd(ctx context.Context, agent *Agent, response *ModelResponse) error

	// OnToolStart is called concurrently with tool invocation.
	OnToolStart(ctx context.Context, agent *Agent, tool tools.Tool, arguments string) error

	// OnToolEnd is called after a tool is invoked.
	OnToolEnd(ctx context.Context, agent *Agent, tool tools.Tool, result string) error
}

type NoOpRunHooks struct{}

func (NoOpRunHooks) OnAgentStart(context.Context, *Agent) error             { return nil }
func (NoOpRunHooks) OnAgentEnd(context.Context, *Agent, string) error       { return nil }
func (NoOpRunHooks) OnLLMStart(context.Context, *Agent, int) error          { return nil }
func (NoOpRunHooks) OnLLMEnd(context.Context, *Agent, *ModelResponse) error { return nil }
func (NoOpRunHooks) OnToolStart(context.Context, *Agent, tools.Tool, string) error {
	return nil
}
func (NoOpRunHooks) OnToolEnd(context.Context, *Agent, tools.Tool, string) error {
	return nil
}

// AgentHooks is implemented by an object that receives callbacks on various
// lifecycle events for a specific agent.
// You can set this on `Agent.Hooks` to receive events for that specific agent.
type AgentHooks interface {
	// OnStart is called before the agent is invoked.
	OnStart(ctx context.Context, agent *Agent) error

	// OnEnd is called when the agent produces a final output.
	OnEnd(ctx context.Context, agent *Agent, output string) error

	// OnToolStart is called concurrently with tool invocation.
	OnToolStart(ctx context.Context, agent *Agent, tool tools.Tool) error

	// OnToolEnd is called after a tool is invoked.
	OnToolEnd(ctx context.Context, agent *Agent, tool tools.Tool, result string) error
}
