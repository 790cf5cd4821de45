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
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/xeipuuv/gojsonschema"
)

// OutputSchema describes the JSON document an agent is asked to produce.
//
// The agents in this program answer with free text that embeds a JSON
// object, so validation is advisory: Problems lists schema violations of
// an already extracted object without rejecting it.
type OutputSchema interface {
	// The Name of the output type.
	Name() string

	// JSONSchema returns the JSON schema of the output.
	JSONSchema() map[string]any

	// IsStrictJSONSchema reports whether unknown properties are rejected.
	IsStrictJSONSchema() bool

	// Validate checks a JSON string against the schema, returning a
	// ModelBehaviorError on mismatch.
	Validate(ctx context.Context, jsonStr string) error

	// Problems returns the schema violations of v, which is marshaled to
	// JSON first. A nil slice means v is valid.
	Problems(v any) ([]string, error)
}

type OutputSchemaOpts struct {
	// Reject properties the Go type does not declare.
	StrictJSONSchema bool
}

type outputSchema[T any] struct {
	name   string
	schema map[string]any
	strict bool

	once     sync.Once
	compiled *gojsonschema.Schema
	compErr  error
}

// OutputSchemaFor reflects the JSON schema of the struct type T.
// It panics in case of errors. For a safer variant, see SafeOutputSchemaFor.
func OutputSchemaFor[T any](opts OutputSchemaOpts) OutputSchema {
	s, err := SafeOutputSchemaFor[T](opts)
	if err != nil {
		panic(err)
	}
	return s
}

func SafeOutputSchemaFor[T any](opts OutputSchemaOpts) (OutputSchema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || !(t.Kind() == reflect.Struct || (t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)) {
		return nil, UserErrorf("output schema type must be a struct, got %T", zero)
	}

	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: !opts.StrictJSONSchema,
		ExpandedStruct:            true,
		DoNotReference:            true,
	}

	b, err := json.Marshal(reflector.Reflect(zero))
	if err != nil {
		return nil, fmt.Errorf("failed to JSON-marshal JSON schema: %w", err)
	}
	var schema map[string]any
	if err = json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("failed to JSON-unmarshal JSON schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")

	return &outputSchema[T]{
		name:   t.Name(),
		schema: schema,
		strict: opts.StrictJSONSchema,
	}, nil
}

func (s *outputSchema[T]) Name() string               { return s.name }
func (s *outputSchema[T]) JSONSchema() map[string]any { return s.schema }
func (s *outputSchema[T]) IsStrictJSONSchema() bool   { return s.strict }

func (s *outputSchema[T]) compile() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		s.compiled, s.compErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.schema))
		if s.compErr != nil {
			s.compErr = ModelBehaviorErrorf("failed to load and compile output JSON schema: %w", s.compErr)
		}
	})
	return s.compiled, s.compErr
}

func (s *outputSchema[T]) Validate(ctx context.Context, jsonStr string) error {
	schema, err := s.compile()
	if err != nil {
		return err
	}
	if err = ValidateJSON(ctx, schema, jsonStr); err != nil {
		AttachErrorToCurrentSpan(ctx, tracing.SpanError{
			Message: "Invalid JSON",
			Data:    map[string]any{"details": err.Error()},
		})
		return fmt.Errorf("output schema %s: %w", s.name, err)
	}
	return nil
}

func (s *outputSchema[T]) Problems(v any) ([]string, error) {
	schema, err := s.compile()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to JSON-marshal value: %w", err)
	}
	return validationProblems(schema, string(b))
}
