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

// Package evaluation asks a model to review the log of the latest analysis
// run from a monitoring and scaling point of view.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/config"
	"github.com/nlpodyssey/productintel/logging"
	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/types/optional"
)

// Question is the request sent with the run log.
const Question = "Give me insights on monitoring, observability, and scaling a multi-agent system in production."

// Only the tail of larger logs is sent to the model.
const maxLogBytes = 100_000

type Evaluator struct {
	Config   *config.Config
	Provider agents.ModelProvider
	Now      func() time.Time
}

type Result struct {
	LogPath    string
	OutputPath string
	Text       string
}

// Evaluate reviews the latest run log of LOGS_DIR and saves the answer to
// EVALUATION_DIR/evaluation_<YYYYMMDD_HHMMSS>.txt.
func (e *Evaluator) Evaluate(ctx context.Context) (*Result, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	timestamp := now().Format("20060102_150405")

	logPath, err := logging.Latest(e.Config.Paths.LogsDir)
	if err != nil {
		return nil, err
	}
	contents, err := readTail(logPath, maxLogBytes)
	if err != nil {
		return nil, err
	}

	prompt := e.Config.Prompt(config.EvaluationPrompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt %s is not configured", config.EvaluationPrompt)
	}
	agent := agents.New("evaluator").
		WithInstructions(prompt).
		WithModel(e.Config.Model.Name()).
		WithModelSettings(modelsettings.ModelSettings{
			Temperature: optional.Value(0.0),
			MaxTokens:   optional.Value[int64](1024),
		})

	runner := agents.Runner{Config: agents.RunConfig{
		ModelProvider:   e.Provider,
		MaxTurns:        e.Config.Model.MaxTurns,
		WorkflowName:    "Run evaluation",
		TracingDisabled: !e.Config.Telemetry.Enabled,
	}}
	input := fmt.Sprintf("%s\n\nRUN LOG (%s):\n%s", Question, filepath.Base(logPath), contents)
	res, err := runner.Run(ctx, agent, input)
	if err != nil {
		return nil, fmt.Errorf("evaluation agent: %w", err)
	}

	dir := e.Config.Paths.EvaluationDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evaluation directory: %w", err)
	}
	out := filepath.Join(dir, "evaluation_"+timestamp+".txt")
	if err := os.WriteFile(out, []byte(res.FinalOutput), 0o644); err != nil {
		return nil, fmt.Errorf("save evaluation: %w", err)
	}
	agents.Logger().Info("Saved evaluation", slog.String("path", out), slog.String("log", logPath))

	return &Result{LogPath: logPath, OutputPath: out, Text: res.FinalOutput}, nil
}

func readTail(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat run log: %w", err)
	}
	offset := max(info.Size()-limit, 0)
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return "", fmt.Errorf("read run log: %w", err)
	}
	return string(buf), nil
}
