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

package tools

import (
	"context"

	"github.com/nlpodyssey/productintel/runcontext"
)

// A Tool that can be used by an agent.
//
// Only function tools exist here; each model adapter translates them into
// its provider's tool declaration format.
type Tool interface {
	// ToolName returns the name of the tool.
	ToolName() string

	// ToolDescription returns the description shown to the LLM.
	ToolDescription() string

	// ParametersSchema returns the JSON schema of the tool arguments.
	ParametersSchema() map[string]any
}

// Invokable is a Tool the run loop can execute locally.
type Invokable interface {
	Tool

	// Invoke runs the tool with the JSON arguments chosen by the model and
	// returns the text handed back to it.
	Invoke(ctx context.Context, rcw *runcontext.Wrapper, arguments string) (string, error)
}
