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

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/config"
	"github.com/nlpodyssey/productintel/dashboard"
	"github.com/nlpodyssey/productintel/logging"
	"github.com/nlpodyssey/productintel/memory"
	"github.com/nlpodyssey/productintel/tools/search"
	"github.com/nlpodyssey/productintel/tracing"
	"github.com/nlpodyssey/productintel/tracing/wrappers/traceloop"
	"github.com/nlpodyssey/productintel/types/optional"
)

// app carries the flags and the replaceable collaborators of a command.
type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	newProvider func(*config.Config) agents.ModelProvider
	openBrowser func(path string) error

	configPath    string
	sessionID     string
	noSave        bool
	noDashboard   bool
	noBrowser     bool
	simple        bool
	verbose       bool
	dashboardOnly string
	watch         bool
}

func newApp() *app {
	return &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		now:         time.Now,
		newProvider: newModelProvider,
		openBrowser: dashboard.Open,
	}
}

// newModelProvider routes model names by their provider prefix.
func newModelProvider(cfg *config.Config) agents.ModelProvider {
	params := agents.NewMultiProviderParams{
		DefaultPrefix: cfg.Model.Provider,
		Bedrock:       agents.BedrockProviderParams{Region: cfg.Model.Region},
		Gemini:        agents.GeminiProviderParams{APIKey: cfg.Model.APIKey},
	}
	if cfg.Model.APIKey != "" {
		params.OpenAI.APIKey = optional.Value(cfg.Model.APIKey)
	}
	if cfg.Model.BaseURL != "" {
		params.OpenAI.BaseURL = optional.Value(cfg.Model.BaseURL)
	}
	return agents.NewMultiProvider(params)
}

// runtime is the per-command environment: configuration, run log and
// trace export.
type runtime struct {
	cfg       *config.Config
	log       *logging.RunLog
	closers   []func(context.Context) error
	tracePath string
}

// start loads the configuration and installs the loggers. logDir overrides
// the directory of the run log file; "-" keeps logs on the console only.
func (a *app) start(logDir string) (*runtime, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if logDir == "" {
		logDir = cfg.Paths.LogsDir
	} else if logDir == "-" {
		logDir = ""
	}

	rl, err := logging.New(logging.Options{
		Dir:     logDir,
		Verbose: a.verbose,
		Console: a.stderr,
		Now:     a.now,
	})
	if err != nil {
		return nil, err
	}
	agents.SetLogger(rl.Logger)
	tracing.SetLogger(rl.Logger)
	rl.Logger.Debug("Configuration loaded", slog.String("source", cfg.Source))

	return &runtime{cfg: cfg, log: rl}, nil
}

// enableTracing exports the traces of the run to LOGS_DIR (or the configured
// trace file) and, with an API key, to Traceloop.
func (rt *runtime) enableTracing(ctx context.Context, sessionID string) error {
	tcfg := rt.cfg.Telemetry
	if !tcfg.Enabled {
		tracing.SetTracingDisabled(true)
		return nil
	}
	tracing.SetTracingDisabled(false)

	rt.tracePath = tcfg.TraceFile
	if rt.tracePath == "" {
		rt.tracePath = filepath.Join(rt.cfg.Paths.LogsDir, "traces_"+sessionID+".jsonl")
	}
	processors := []tracing.Processor{
		tracing.NewBatchTraceProcessor(tracing.BatchTraceProcessorParams{
			Exporter: tracing.NewFileSpanExporter(rt.tracePath),
		}),
	}

	if tcfg.TraceloopAPIKey != "" {
		p, err := traceloop.NewTracingProcessor(ctx, traceloop.ProcessorParams{
			APIKey:  tcfg.TraceloopAPIKey,
			BaseURL: tcfg.TraceloopBaseURL,
			Vendor:  vendor(rt.cfg.Model.Provider),
		})
		if err != nil {
			return err
		}
		processors = append(processors, p)
	}

	tracing.SetTraceProcessors(processors)
	rt.closers = append(rt.closers, func(ctx context.Context) error {
		tracing.GetTraceProvider().Shutdown(ctx)
		return nil
	})
	rt.log.Logger.Info("Tracing enabled", slog.String("trace_file", rt.tracePath))
	return nil
}

func vendor(provider string) string {
	switch provider {
	case config.ProviderBedrock:
		return "aws"
	case config.ProviderGemini:
		return "google"
	default:
		return provider
	}
}

// openStore opens the configured session store. It is closed with rt.
func (rt *runtime) openStore(ctx context.Context) (memory.Store, error) {
	store, err := memory.OpenStore(ctx, memory.StoreParams{
		Backend:     memory.Backend(rt.cfg.Session.Backend),
		SessionsDir: rt.cfg.Paths.SessionsDir,
		PostgresDSN: rt.cfg.Session.PostgresDSN,
	})
	if err != nil || store == nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })
	return store, nil
}

// searcher returns the web searcher of the specialists, or nil when search
// is disabled.
func (rt *runtime) searcher() *search.Searcher {
	scfg := rt.cfg.Search
	if !scfg.Enabled {
		return nil
	}
	s := &search.Searcher{
		Engine: search.DuckDuckGo{
			Endpoint:   scfg.Endpoint,
			UserAgent:  scfg.UserAgent,
			MaxResults: scfg.MaxResults,
		},
	}
	if scfg.SaveResults {
		s.DataDir = rt.cfg.Paths.DataDir
	}
	return s
}

// Close releases everything start and the open* helpers acquired, in
// reverse order.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i](ctx))
	}
	rt.closers = nil
	errs = append(errs, rt.log.Close())
	return errors.Join(errs...)
}
