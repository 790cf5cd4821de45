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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaTestOutput struct {
	Summary string   `json:"summary"`
	Score   float64  `json:"score" jsonschema:"minimum=0,maximum=10"`
	Tags    []string `json:"tags,omitempty"`
}

func TestOutputSchemaFor(t *testing.T) {
	s := OutputSchemaFor[schemaTestOutput](OutputSchemaOpts{})
	assert.Equal(t, "schemaTestOutput", s.Name())
	assert.False(t, s.IsStrictJSONSchema())

	schema := s.JSONSchema()
	assert.Equal(t, "object", schema["type"])
	assert.ElementsMatch(t, []any{"summary", "score"}, schema["required"])
	assert.NotContains(t, schema, "$schema")
}

func TestOutputSchema_Validate(t *testing.T) {
	s := OutputSchemaFor[schemaTestOutput](OutputSchemaOpts{StrictJSONSchema: true})

	assert.NoError(t, s.Validate(t.Context(), `{"summary": "ok", "score": 3}`))

	err := s.Validate(t.Context(), `{"summary": "ok", "score": 11, "extra": 1}`)
	require.Error(t, err)
	assert.ErrorAs(t, err, &ModelBehaviorError{})
	assert.ErrorContains(t, err, "JSON validation failed")
}

func TestOutputSchema_Problems(t *testing.T) {
	s := OutputSchemaFor[schemaTestOutput](OutputSchemaOpts{})

	problems, err := s.Problems(map[string]any{"summary": "ok", "score": 5, "extra": true})
	require.NoError(t, err)
	assert.Nil(t, problems)

	problems, err = s.Problems(map[string]any{"score": "high"})
	require.NoError(t, err)
	assert.Len(t, problems, 2)
}

func TestSafeOutputSchemaFor_RejectsNonStruct(t *testing.T) {
	_, err := SafeOutputSchemaFor[string](OutputSchemaOpts{})
	assert.ErrorAs(t, err, &UserError{})
	assert.Panics(t, func() { OutputSchemaFor[[]int](OutputSchemaOpts{}) })
}
