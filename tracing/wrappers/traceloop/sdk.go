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

package traceloop

import (
	"context"

	sdk "github.com/traceloop/go-openllmetry/traceloop-sdk"
)

// The SDK hands out concrete types; these small interfaces let the processor
// be tested without a Traceloop backend.

type client interface {
	NewWorkflow(ctx context.Context, attrs sdk.WorkflowAttributes) workflow
	Shutdown(ctx context.Context)
}

type workflow interface {
	NewTask(name string) task
	End()
}

type task interface {
	LogPrompt(prompt sdk.Prompt) (llmSpan, error)
	End()
}

type llmSpan interface {
	LogCompletion(ctx context.Context, completion sdk.Completion, usage sdk.Usage) error
}

type sdkClient struct{ c *sdk.Traceloop }

func (s sdkClient) NewWorkflow(ctx context.Context, attrs sdk.WorkflowAttributes) workflow {
	return sdkWorkflow{s.c.NewWorkflow(ctx, attrs)}
}

func (s sdkClient) Shutdown(ctx context.Context) { s.c.Shutdown(ctx) }

type sdkWorkflow struct{ w *sdk.Workflow }

func (s sdkWorkflow) NewTask(name string) task { return sdkTask{s.w.NewTask(name)} }
func (s sdkWorkflow) End()                     { s.w.End() }

type sdkTask struct{ t *sdk.Task }

func (s sdkTask) LogPrompt(prompt sdk.Prompt) (llmSpan, error) {
	ls, err := s.t.LogPrompt(prompt)
	if err != nil {
		return nil, err
	}
	return sdkLLMSpan{ls}, nil
}

func (s sdkTask) End() { s.t.End() }

type sdkLLMSpan struct{ s sdk.LLMSpan }

func (s sdkLLMSpan) LogCompletion(ctx context.Context, completion sdk.Completion, usage sdk.Usage) error {
	return s.s.LogCompletion(ctx, completion, usage)
}
