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

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/usage"
)

// Model is the base interface for calling an LLM.
type Model interface {
	// GetResponse returns the full model response from the model.
	GetResponse(context.Context, ModelResponseParams) (*ModelResponse, error)
}

type ModelResponseParams struct {
	// The system instructions to use. Empty means none.
	SystemInstructions string

	// The conversation so far, oldest first.
	Input []message.Item

	// The model settings to use.
	ModelSettings modelsettings.ModelSettings

	// The tools available to the model.
	Tools []tools.Tool

	// Optional output schema. Providers that support a JSON response
	// format use it; the others rely on the instructions.
	OutputSchema OutputSchema
}

type ModelResponse struct {
	// Assistant messages and function calls produced by the model.
	Output []message.Item

	// The usage information for the response.
	Usage *usage.Usage

	// Provider-assigned identifier, if any.
	ResponseID string
}

// FunctionCalls returns the function call items of the response.
func (r ModelResponse) FunctionCalls() []message.Item {
	var calls []message.Item
	for _, it := range r.Output {
		if it.IsFunctionCall() {
			calls = append(calls, it)
		}
	}
	return calls
}

// ModelProvider is the base interface for a model provider.
// It is responsible for looking up Models by name.
type ModelProvider interface {
	// GetModel returns a model by name.
	GetModel(modelName string) (Model, error)
}
