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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalINI = `
[MODEL_PARAM]
BEDROCK_MODEL_ID = anthropic.claude-v2
MODEL_REGION = eu-west-1
MODEL_TEMPERATURE = 0.1
MAXIMUM_TOKENS = 1024

[PROMPT]
PRODUCT_DATA_PROMPT = product
COMPETITOR_ANALYST_PROMPT = competitor
SENTIMENT_ANALYST_PROMPT = sentiment
ORCHESTRATOR_PROMPT = orchestrator
EVALUATION_PROMPT = evaluation
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PRODUCTINTEL_PROVIDER", "PRODUCTINTEL_MODEL_ID", "BEDROCK_MODEL_ID",
		"AWS_DEFAULT_REGION", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "TRACELOOP_API_KEY",
		"PRODUCTINTEL_POSTGRES_DSN",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, EmbeddedSource, cfg.Source)
	assert.Equal(t, ProviderBedrock, cfg.Model.Provider)
	assert.Equal(t, "us-west-2", cfg.Model.Region)
	assert.Equal(t, "bedrock/us.anthropic.claude-3-7-sonnet-20250219-v1:0", cfg.Model.Name())
	assert.Equal(t, 3*time.Minute, cfg.Model.RequestTimeout)
	assert.Equal(t, uint64(10), cfg.Model.MaxTurns)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, 20, cfg.Session.HistoryLimit)
	assert.Equal(t, "ecommerce-agent-v2", cfg.Telemetry.ExperimentID)
	assert.Empty(t, cfg.Callback.URL)

	for _, key := range promptKeys {
		assert.NotEmpty(t, cfg.Prompt(key), key)
	}
	assert.Contains(t, cfg.Prompt(OrchestratorPrompt), `"kpi_dashboard"`)
	assert.Contains(t, cfg.Prompt(ProductDataPrompt), "```json")
}

func TestParse_DefaultsAndLegacyKeys(t *testing.T) {
	cfg, err := Parse([]byte(minimalINI))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "anthropic.claude-v2", cfg.Model.ModelID)
	assert.Equal(t, 0.1, cfg.Model.Temperature)
	assert.Equal(t, int64(1024), cfg.Model.MaxTokens)
	assert.Zero(t, cfg.Model.TopP)
	assert.Equal(t, "results", cfg.Paths.ResultsDir)
	assert.Equal(t, "logs", cfg.Paths.LogsDir)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.Enabled)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestParse_IndentedContinuationLines(t *testing.T) {
	data := "[PROMPT]\n" +
		"PRODUCT_DATA_PROMPT = You are a product analyst.\n" +
		"    Use the search tool first.\n" +
		"\tAnswer in JSON.\n" +
		"COMPETITOR_ANALYST_PROMPT = competitor\n"
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t,
		"You are a product analyst.\n    Use the search tool first.\n\tAnswer in JSON.",
		cfg.Prompt(ProductDataPrompt))
	assert.Equal(t, "competitor", cfg.Prompt(CompetitorAnalystPrompt))
}

func TestParse_MalformedValues(t *testing.T) {
	_, err := Parse([]byte(minimalINI + `
[SEARCH]
MAX_RESULTS = many
ENABLED = perhaps
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "SEARCH.MAX_RESULTS")
	assert.ErrorContains(t, err, "SEARCH.ENABLED")
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(minimalINI))
	require.NoError(t, err)

	env := map[string]string{
		"PRODUCTINTEL_PROVIDER":     "OpenAI",
		"BEDROCK_MODEL_ID":          "gpt-4o-mini",
		"AWS_DEFAULT_REGION":        "us-east-1",
		"OPENAI_API_KEY":            "sk-test",
		"GEMINI_API_KEY":            "ignored",
		"TRACELOOP_API_KEY":         "tl-key",
		"PRODUCTINTEL_POSTGRES_DSN": "",
	}
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.ModelID)
	assert.Equal(t, "us-east-1", cfg.Model.Region)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "tl-key", cfg.Telemetry.TraceloopAPIKey)
	assert.Empty(t, cfg.Session.PostgresDSN)
}

func TestApplyEnv_ModelIDPrecedence(t *testing.T) {
	cfg, err := Parse([]byte(minimalINI))
	require.NoError(t, err)

	env := map[string]string{
		"PRODUCTINTEL_MODEL_ID": "primary",
		"BEDROCK_MODEL_ID":      "legacy",
		"GOOGLE_API_KEY":        "g-key",
		"PRODUCTINTEL_PROVIDER": "gemini",
	}
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "primary", cfg.Model.ModelID)
	assert.Equal(t, "g-key", cfg.Model.APIKey)
}

func TestValidate(t *testing.T) {
	cfg, err := Parse([]byte(minimalINI))
	require.NoError(t, err)

	cfg.Model.Provider = "mistral"
	cfg.Model.Temperature = 2.5
	cfg.Model.MaxTokens = 0
	cfg.Prompts[SentimentAnalystPrompt] = ""
	cfg.Session.Backend = BackendPostgres

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown provider "mistral"`,
		"MODEL_TEMPERATURE must be in [0, 2]",
		"MAXIMUM_TOKENS must be positive",
		"PROMPT.SENTIMENT_ANALYST_PROMPT is required",
		"POSTGRES_DSN is required",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.ini")
	require.NoError(t, os.WriteFile(path, []byte(minimalINI), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "eu-west-1", cfg.Model.Region)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_WorkingDirectoryAndDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set.
	require.NoError(t, os.Unsetenv("AWS_DEFAULT_REGION"))
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(FileName, []byte(minimalINI), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("AWS_DEFAULT_REGION=ap-south-1\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, FileName, cfg.Source)
	assert.Equal(t, "ap-south-1", cfg.Model.Region)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "bad.ini")
	require.NoError(t, os.WriteFile(path, []byte("[MODEL_PARAM]\nMODEL_ID = x\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "PROMPT.PRODUCT_DATA_PROMPT is required")
}
