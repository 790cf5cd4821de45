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

// Package agentstesting provides scripted models and tool helpers for
// tests that drive the agent runtime.
package agentstesting

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nlpodyssey/productintel/runcontext"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/message"
)

var callIDs atomic.Uint64

func GetTextMessage(content string) message.Item {
	return message.AssistantMessage(content)
}

func emptyObjectSchema(name string) map[string]any {
	return map[string]any{
		"title":                name + "_args",
		"type":                 "object",
		"required":             []string{},
		"additionalProperties": false,
		"properties":           map[string]any{},
	}
}

func GetFunctionTool(name string, returnValue string) tools.Function {
	return tools.Function{
		Name:             name,
		ParamsJSONSchema: emptyObjectSchema(name),
		OnInvokeTool: func(context.Context, *runcontext.Wrapper, string) (any, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) tools.Function {
	return tools.Function{
		Name:             name,
		ParamsJSONSchema: emptyObjectSchema(name),
		OnInvokeTool: func(context.Context, *runcontext.Wrapper, string) (any, error) {
			return nil, returnErr
		},
	}
}

// GetFunctionToolCall returns a function call item with a unique call ID.
func GetFunctionToolCall(name string, arguments string) message.Item {
	return message.FunctionCall(fmt.Sprintf("call_%d", callIDs.Add(1)), name, arguments)
}
