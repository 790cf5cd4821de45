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
	"bytes"
	"log/slog"
	"testing"

	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	return &buf
}

func TestOpenAIProvider_MissingAPIKeyWarning(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	logs := captureLogs(t)

	_, err := NewOpenAIProvider(OpenAIProviderParams{}).GetModel("gpt-4.1")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "set OPENAI_API_KEY")
	assert.NotContains(t, logs.String(), "MODEL_PARAM")
}

func TestOpenAIProvider_ExplicitAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	logs := captureLogs(t)

	_, err := NewOpenAIProvider(OpenAIProviderParams{APIKey: optional.Value("sk-test")}).GetModel("gpt-4.1")
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}
