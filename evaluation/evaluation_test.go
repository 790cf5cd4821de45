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

package evaluation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/agentstesting"
	"github.com/nlpodyssey/productintel/config"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	model agents.Model
	names []string
}

func (p *fakeProvider) GetModel(name string) (agents.Model, error) {
	p.names = append(p.names, name)
	return p.model, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Paths.EvaluationDir = filepath.Join(dir, "evaluation")
	cfg.Telemetry.Enabled = false
	return cfg
}

func TestEvaluate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.LogsDir, 0o755))
	logPath := filepath.Join(cfg.Paths.LogsDir, "run_20250701_093000.log")
	require.NoError(t, os.WriteFile(logPath, []byte("level=INFO msg=\"Product agent completed successfully\"\n"), 0o644))

	model := agentstesting.NewFakeModel(false, &agentstesting.FakeModelTurnOutput{
		Value: []message.Item{agentstesting.GetTextMessage("Add per-agent latency metrics.")},
	})
	provider := &fakeProvider{model: model}
	e := &Evaluator{
		Config:   cfg,
		Provider: provider,
		Now:      func() time.Time { return time.Date(2025, 7, 2, 10, 0, 0, 0, time.Local) },
	}

	res, err := e.Evaluate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, logPath, res.LogPath)
	assert.Equal(t, filepath.Join(cfg.Paths.EvaluationDir, "evaluation_20250702_100000.txt"), res.OutputPath)
	assert.Equal(t, "Add per-agent latency metrics.", res.Text)

	saved, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "Add per-agent latency metrics.", string(saved))

	assert.Equal(t, []string{cfg.Model.Name()}, provider.names)
	args := model.LastTurnArgs()
	assert.Equal(t, cfg.Prompt(config.EvaluationPrompt), args.SystemInstructions)
	require.Len(t, args.Input, 1)
	assert.True(t, strings.HasPrefix(args.Input[0].Content, Question))
	assert.Contains(t, args.Input[0].Content, "RUN LOG (run_20250701_093000.log):")
	assert.Contains(t, args.Input[0].Content, "Product agent completed successfully")
	temperature, _ := args.ModelSettings.Temperature.Get()
	assert.Zero(t, temperature)
}

func TestEvaluate_NoLogs(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.LogsDir, 0o755))

	model := agentstesting.NewFakeModel(false, nil)
	_, err := (&Evaluator{Config: cfg, Provider: &fakeProvider{model: model}}).Evaluate(t.Context())
	assert.ErrorContains(t, err, "no log files")
	assert.Zero(t, model.Calls())
}

func TestEvaluate_ModelError(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.LogsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.LogsDir, "run_1.log"), []byte("x"), 0o644))

	model := agentstesting.NewFakeModel(false, &agentstesting.FakeModelTurnOutput{Error: assert.AnError})
	_, err := (&Evaluator{Config: cfg, Provider: &fakeProvider{model: model}}).Evaluate(t.Context())
	assert.ErrorIs(t, err, assert.AnError)
	_, statErr := os.Stat(cfg.Paths.EvaluationDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_1.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	got, err := readTail(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "6789", got)

	got, err = readTail(path, 100)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", got)
}
