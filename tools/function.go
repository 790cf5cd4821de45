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
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/nlpodyssey/productintel/runcontext"
)

// Function is an Invokable tool backed by a Go function.
type Function struct {
	Name        string
	Description string

	// JSON schema of the arguments object.
	ParamsJSONSchema map[string]any

	// OnInvokeTool receives the raw JSON arguments chosen by the model. A
	// returned error fails the run; a non-string result is sent back to
	// the model as JSON.
	OnInvokeTool func(ctx context.Context, rcw *runcontext.Wrapper, arguments string) (any, error)
}

func (f Function) ToolName() string                 { return f.Name }
func (f Function) ToolDescription() string          { return f.Description }
func (f Function) ParametersSchema() map[string]any { return f.ParamsJSONSchema }

func (f Function) Invoke(ctx context.Context, rcw *runcontext.Wrapper, arguments string) (string, error) {
	if f.OnInvokeTool == nil {
		return "", fmt.Errorf("tool %q has no handler", f.Name)
	}
	out, err := f.OnInvokeTool(ctx, rcw, arguments)
	if err != nil {
		return "", err
	}
	return render(out), nil
}

func render(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// NewFunctionTool wraps a typed handler. The parameters schema is reflected
// from Args, honouring `json` and `jsonschema` struct tags:
//
//	type searchArgs struct {
//		Query string `json:"query" jsonschema:"description=Product to look up"`
//	}
//
// The handler context carries the runcontext.Wrapper of the run.
func NewFunctionTool[Args, Out any](name, description string, handler func(context.Context, Args) (Out, error)) Function {
	return Function{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: ReflectSchema[Args](description),
		OnInvokeTool: func(ctx context.Context, rcw *runcontext.Wrapper, arguments string) (any, error) {
			var args Args
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to parse arguments: %w", err)
			}
			if rcw != nil {
				ctx = runcontext.WithWrapper(ctx, rcw)
			}
			out, err := handler(ctx, args)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

var reflector = jsonschema.Reflector{
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// ReflectSchema returns the inline JSON schema of T as a generic map, with
// description set at the top level when not empty.
func ReflectSchema[T any](description string) map[string]any {
	var zero T
	data, err := json.Marshal(reflector.Reflect(&zero))
	if err != nil {
		panic(fmt.Sprintf("reflect %T schema: %v", zero, err))
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		panic(fmt.Sprintf("decode %T schema: %v", zero, err))
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if description != "" {
		schema["description"] = description
	}
	return schema
}
