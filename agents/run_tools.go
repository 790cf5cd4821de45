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
	"log/slog"

	"github.com/nlpodyssey/productintel/runcontext"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/types/message"
	"golang.org/x/sync/errgroup"
)

// executeFunctionTools runs the requested calls concurrently and returns
// their outputs in call order.
//
// A tool failure is reported back to the model as text so it can recover.
// Unknown tools and context cancellation abort the run.
func (r Runner) executeFunctionTools(
	ctx context.Context,
	hooks RunHooks,
	agent *Agent,
	rcw *runcontext.Wrapper,
	calls []message.Item,
) ([]message.Item, error) {
	resolved := make([]tools.Invokable, len(calls))
	for i, call := range calls {
		tool, ok := agent.FindTool(call.Name)
		if !ok {
			AttachErrorToCurrentSpan(ctx, tracing.SpanError{
				Message: "Tool not found",
				Data:    map[string]any{"tool_name": call.Name},
			})
			return nil, ModelBehaviorErrorf("%w: %q in agent %s", errToolNotFound, call.Name, agent.Name)
		}
		inv, ok := tool.(tools.Invokable)
		if !ok {
			return nil, UserErrorf("tool %q of agent %s cannot be invoked locally", call.Name, agent.Name)
		}
		resolved[i] = inv
	}

	outputs := make([]message.Item, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			out, err := r.runFunctionTool(gctx, hooks, agent, rcw, resolved[i], call)
			if err != nil {
				return err
			}
			outputs[i] = message.FunctionCallOutput(call.CallID, call.Name, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (r Runner) runFunctionTool(
	ctx context.Context,
	hooks RunHooks,
	agent *Agent,
	rcw *runcontext.Wrapper,
	tool tools.Invokable,
	call message.Item,
) (output string, err error) {
	spanParams := tracing.FunctionSpanParams{
		Name:        call.Name,
		SpanOptions: tracing.SpanOptions{Disabled: r.Config.TracingDisabled},
	}
	if !DontLogModelData {
		spanParams.Input = call.Arguments
	}
	err = tracing.FunctionSpan(ctx, spanParams, func(ctx context.Context, span tracing.Span) error {
		if err := hooks.OnToolStart(ctx, agent, tool, call.Arguments); err != nil {
			return err
		}
		if agent.Hooks != nil {
			if err := agent.Hooks.OnToolStart(ctx, agent, tool); err != nil {
				return err
			}
		}

		out, toolErr := tool.Invoke(ctx, rcw, call.Arguments)
		if toolErr != nil {
			if errors.Is(toolErr, context.Canceled) || errors.Is(toolErr, context.DeadlineExceeded) {
				return toolErr
			}
			Logger().Warn("Tool failed",
				slog.String("agent", agent.Name),
				slog.String("tool", call.Name),
				slog.String("error", toolErr.Error()))
			AttachErrorToSpan(span, tracing.SpanError{
				Message: "Error running tool",
				Data:    map[string]any{"tool_name": call.Name, "error": toolErr.Error()},
			})
			out = toolFailureMessage(toolErr)
		}

		if sd, ok := span.SpanData().(*tracing.FunctionSpanData); ok && !DontLogModelData {
			sd.Output = out
		}
		output = out

		if err := hooks.OnToolEnd(ctx, agent, tool, out); err != nil {
			return err
		}
		if agent.Hooks != nil {
			return agent.Hooks.OnToolEnd(ctx, agent, tool, out)
		}
		return nil
	})
	return output, err
}

func toolFailureMessage(err error) string {
	return fmt.Sprintf("An error occurred while running the tool. Please try again. Error: %s", err)
}
