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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nlpodyssey/productintel/memory"
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/runcontext"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/nlpodyssey/productintel/usage"
)

const DefaultMaxTurns = 10

const DefaultWorkflowName = "Agent workflow"

// DefaultRunner backs the package-level Run functions.
var DefaultRunner = Runner{}

// Runner runs agents with a shared RunConfig. A zero Runner is ready to use.
type Runner struct {
	Config RunConfig
}

// RunConfig holds the settings applied to every agent of a run.
type RunConfig struct {
	// Overrides the model of every agent when set.
	Model optional.Optional[AgentModel]

	// Resolves model names. Nil means NewMultiProvider with zero params.
	ModelProvider ModelProvider

	// Present fields override the settings of the agent.
	ModelSettings *modelsettings.ModelSettings

	// Model invocations allowed before MaxTurnsExceededError. Zero means
	// DefaultMaxTurns; tool calls do not count as turns.
	MaxTurns uint64

	Hooks RunHooks

	// Optional context object passed to tools through the runcontext.Wrapper.
	Context any

	// Identifier of the analysis session, exposed to tools.
	SessionID string

	// Optional session for the run. When set, the stored history is
	// prepended to the input and the new items are saved after the run.
	Session memory.Session

	// Maximum number of history items loaded from Session. <= 0 loads all.
	SessionHistoryLimit int

	// Whether tracing is disabled for the agent run.
	TracingDisabled bool

	// The name of the run, used for tracing. Ignored when the run happens
	// inside an existing trace.
	WorkflowName string

	// Trace identifiers. An empty TraceID is generated; GroupID links the
	// traces of one analysis session.
	TraceID string
	GroupID string

	// Attached to the trace, e.g. the product under analysis.
	TraceMetadata map[string]any
}

// RunResult holds the outcome of a completed agent run.
type RunResult struct {
	// The original input items, i.e. the items before Run was called
	// (session history excluded).
	Input []message.Item

	// The items generated during the run: assistant messages, function
	// calls and function call outputs.
	NewItems []message.Item

	// The raw LLM responses generated by the model during the run.
	RawResponses []ModelResponse

	// The text of the last assistant message.
	FinalOutput string

	// The agent that ran.
	LastAgent *Agent

	// Usage accumulated over all model calls of the run.
	Usage *usage.Usage

	// Number of model turns taken.
	Turns int
}

// ToInputList merges the original input with the generated items, ready to
// be fed to a follow-up run.
func (r RunResult) ToInputList() []message.Item {
	return slices.Concat(r.Input, r.NewItems)
}

// Run runs startingAgent on a single user message with DefaultRunner.
func Run(ctx context.Context, startingAgent *Agent, input string) (*RunResult, error) {
	return DefaultRunner.Run(ctx, startingAgent, input)
}

// RunInputs is the DefaultRunner counterpart of Runner.RunInputs.
func RunInputs(ctx context.Context, startingAgent *Agent, input []message.Item) (*RunResult, error) {
	return DefaultRunner.RunInputs(ctx, startingAgent, input)
}

// Run an agent starting with a user message.
//
// The agent runs in a loop until it answers without requesting tool calls:
//  1. The agent is invoked with the conversation so far.
//  2. If the answer has no function calls, it is the final output and the loop ends.
//  3. Otherwise the function tools run concurrently, their outputs are
//     appended to the conversation, and the loop continues.
//
// A MaxTurnsExceededError is returned if the agent needs more than MaxTurns
// model calls.
func (r Runner) Run(ctx context.Context, startingAgent *Agent, input string) (*RunResult, error) {
	return r.RunInputs(ctx, startingAgent, []message.Item{message.UserMessage(input)})
}

// RunInputs is like Run, with an explicit list of input items.
func (r Runner) RunInputs(ctx context.Context, startingAgent *Agent, input []message.Item) (*RunResult, error) {
	if startingAgent == nil {
		return nil, NewUserError("no agent to run")
	}
	if err := startingAgent.Validate(); err != nil {
		return nil, err
	}

	var result *RunResult
	run := func(ctx context.Context) (err error) {
		result, err = r.run(ctx, startingAgent, input)
		return err
	}

	if tracing.GetCurrentTrace(ctx) != nil {
		err := run(ctx)
		return result, err
	}

	err := tracing.RunTrace(ctx, tracing.TraceParams{
		WorkflowName: cmp.Or(r.Config.WorkflowName, DefaultWorkflowName),
		TraceID:      r.Config.TraceID,
		GroupID:      r.Config.GroupID,
		Metadata:     r.Config.TraceMetadata,
		Disabled:     r.Config.TracingDisabled,
	}, func(ctx context.Context, _ tracing.Trace) error {
		return run(ctx)
	})
	return result, err
}

func (r Runner) run(ctx context.Context, agent *Agent, input []message.Item) (*RunResult, error) {
	history, err := r.prepareInputWithSession(ctx, input)
	if err != nil {
		return nil, err
	}

	hooks := r.Config.Hooks
	if hooks == nil {
		hooks = NoOpRunHooks{}
	}

	maxTurns := r.Config.MaxTurns
	if maxTurns == 0 {
		maxTurns = DefaultMaxTurns
	}

	model, err := r.getModel(agent)
	if err != nil {
		return nil, err
	}

	modelSettings := agent.ModelSettings
	if r.Config.ModelSettings != nil {
		modelSettings = modelSettings.Resolve(*r.Config.ModelSettings)
	}

	rcw := runcontext.NewWrapper(r.Config.Context)
	rcw.SessionID = r.Config.SessionID
	rcw.AgentName = agent.Name
	ctx = runcontext.WithWrapper(ctx, rcw)

	result := &RunResult{
		Input:     slices.Clone(input),
		LastAgent: agent,
		Usage:     rcw.Usage,
	}

	spanParams := tracing.AgentSpanParams{
		Name:        agent.Name,
		Tools:       agent.ToolNames(),
		SpanOptions: tracing.SpanOptions{Disabled: r.Config.TracingDisabled},
	}
	if agent.OutputSchema != nil {
		spanParams.OutputType = agent.OutputSchema.Name()
	}

	err = tracing.AgentSpan(ctx, spanParams, func(ctx context.Context, span tracing.Span) error {
		if err := r.runAgentStartHooks(ctx, hooks, agent); err != nil {
			return err
		}

		systemPrompt, err := agent.GetSystemPrompt(ctx)
		if err != nil {
			return err
		}

		for turn := 1; ; turn++ {
			if uint64(turn) > maxTurns {
				AttachErrorToSpan(span, tracing.SpanError{
					Message: "Max turns exceeded",
					Data:    map[string]any{"max_turns": maxTurns},
				})
				return MaxTurnsExceededErrorf("max turns (%d) exceeded", maxTurns)
			}

			Logger().Debug("Running agent", slog.String("agent", agent.Name), slog.Int("turn", turn))

			if err := hooks.OnLLMStart(ctx, agent, turn); err != nil {
				return err
			}

			resp, err := model.GetResponse(ctx, ModelResponseParams{
				SystemInstructions: systemPrompt,
				Input:              history,
				ModelSettings:      modelSettings,
				Tools:              agent.Tools,
				OutputSchema:       agent.OutputSchema,
			})
			if err != nil {
				return err
			}
			result.Turns = turn
			r.recordUsage(ctx, rcw, resp.Usage)
			result.RawResponses = append(result.RawResponses, *resp)

			if err := hooks.OnLLMEnd(ctx, agent, resp); err != nil {
				return err
			}

			history = append(history, resp.Output...)
			result.NewItems = append(result.NewItems, resp.Output...)

			calls := resp.FunctionCalls()
			if len(calls) == 0 {
				result.FinalOutput = message.TextOutput(resp.Output)
				return r.runAgentEndHooks(ctx, hooks, agent, result.FinalOutput)
			}

			outputs, err := r.executeFunctionTools(ctx, hooks, agent, rcw, calls)
			if err != nil {
				return err
			}
			history = append(history, outputs...)
			result.NewItems = append(result.NewItems, outputs...)
		}
	})
	if err != nil {
		return nil, err
	}

	if err = r.saveResultToSession(ctx, input, result); err != nil {
		return nil, err
	}
	return result, nil
}

// recordUsage adds u to the run usage and, when present, to the usage
// carried by ctx so callers can total concurrent runs.
func (r Runner) recordUsage(ctx context.Context, rcw *runcontext.Wrapper, u *usage.Usage) {
	if u == nil {
		return
	}
	rcw.Usage.Add(u)
	if parent, ok := usage.FromContext(ctx); ok && parent != nil && parent != rcw.Usage {
		parent.Add(u)
	}
}

func (r Runner) runAgentStartHooks(ctx context.Context, hooks RunHooks, agent *Agent) error {
	if err := hooks.OnAgentStart(ctx, agent); err != nil {
		return err
	}
	if agent.Hooks != nil {
		return agent.Hooks.OnStart(ctx, agent)
	}
	return nil
}

func (r Runner) runAgentEndHooks(ctx context.Context, hooks RunHooks, agent *Agent, output string) error {
	if err := hooks.OnAgentEnd(ctx, agent, output); err != nil {
		return err
	}
	if agent.Hooks != nil {
		return agent.Hooks.OnEnd(ctx, agent, output)
	}
	return nil
}

func (r Runner) getModel(agent *Agent) (Model, error) {
	am, ok := r.Config.Model.Get()
	if !ok {
		am, ok = agent.Model.Get()
	}
	if !ok {
		return nil, UserErrorf("no model configured for agent %q", agent.Name)
	}

	if m, ok := am.Model(); ok {
		return m, nil
	}
	name, _ := am.ModelName()

	provider := r.Config.ModelProvider
	if provider == nil {
		provider = NewMultiProvider(NewMultiProviderParams{})
	}
	return provider.GetModel(name)
}

// prepareInputWithSession prepends the session history to input.
func (r Runner) prepareInputWithSession(ctx context.Context, input []message.Item) ([]message.Item, error) {
	s := r.Config.Session
	if s == nil {
		return slices.Clone(input), nil
	}
	history, err := s.GetItems(ctx, r.Config.SessionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", s.SessionID(ctx), err)
	}
	return slices.Concat(message.TrimLeadingOrphans(history), input), nil
}

// saveResultToSession appends the input and the new items of the turn.
func (r Runner) saveResultToSession(ctx context.Context, input []message.Item, result *RunResult) error {
	s := r.Config.Session
	if s == nil {
		return nil
	}
	if err := s.AddItems(ctx, slices.Concat(input, result.NewItems)); err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID(ctx), err)
	}
	return nil
}

// errToolNotFound is wrapped by the ModelBehaviorError returned when the
// model calls a tool the agent does not have.
var errToolNotFound = errors.New("tool not found")
