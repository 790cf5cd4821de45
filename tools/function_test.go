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
	"errors"
	"testing"

	"github.com/nlpodyssey/productintel/runcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	Query string `json:"query" jsonschema:"description=What to look up"`
	Limit int    `json:"limit"`
}

type lookupResult struct {
	Echo    string `json:"echo"`
	Session string `json:"session"`
}

func TestNewFunctionTool(t *testing.T) {
	tool := NewFunctionTool("lookup", "Look things up", func(ctx context.Context, args lookupArgs) (lookupResult, error) {
		w, _ := runcontext.FromContext(ctx)
		return lookupResult{Echo: args.Query, Session: w.SessionID}, nil
	})

	assert.Equal(t, "lookup", tool.ToolName())
	assert.Equal(t, "Look things up", tool.ToolDescription())

	schema := tool.ParametersSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, "Look things up", schema["description"])
	assert.NotContains(t, schema, "$schema")
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	rcw := runcontext.NewWrapper(nil)
	rcw.SessionID = "s1"
	out, err := tool.Invoke(t.Context(), rcw, `{"query":"samba","limit":3}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"samba","session":"s1"}`, out)
}

func TestNewFunctionTool_StringResult(t *testing.T) {
	tool := NewFunctionTool("echo", "", func(_ context.Context, args lookupArgs) (string, error) {
		return "plain " + args.Query, nil
	})
	out, err := tool.Invoke(t.Context(), nil, `{"query":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "plain x", out)
}

func TestNewFunctionTool_Errors(t *testing.T) {
	boom := errors.New("boom")
	tool := NewFunctionTool("fail", "", func(context.Context, lookupArgs) (string, error) {
		return "", boom
	})

	_, err := tool.Invoke(t.Context(), nil, `not json`)
	assert.ErrorContains(t, err, "failed to parse arguments")

	_, err = tool.Invoke(t.Context(), nil, `{}`)
	assert.ErrorIs(t, err, boom)

	_, err = Function{Name: "empty"}.Invoke(t.Context(), nil, `{}`)
	assert.Error(t, err)
}
