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

// Package logging builds the run logger: text records on stderr plus a copy
// in a per-run file under the logs directory.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix = "run_"
	runLogExt    = ".log"
)

func isRunLog(name string) bool {
	return strings.HasPrefix(name, runLogPrefix) && strings.HasSuffix(name, runLogExt)
}

// Options configures New.
type Options struct {
	// Directory of the run log files. Empty disables the file copy.
	Dir string
	// Debug level instead of info.
	Verbose bool
	// Console destination. Defaults to os.Stderr.
	Console io.Writer
	// Clock used to name the log file. Defaults to time.Now.
	Now func() time.Time
}

// RunLog is the logger of a single CLI run.
type RunLog struct {
	Logger *slog.Logger
	// Path of the log file, empty when Options.Dir was empty.
	Path string

	file *os.File
}

// New opens the run log file (LOGS_DIR/run_<YYYYMMDD_HHMMSS>.log) and
// returns a logger writing to it and to the console.
func New(opts Options) (*RunLog, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(console, handlerOpts)}

	rl := &RunLog{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create logs directory: %w", err)
		}
		rl.Path = filepath.Join(opts.Dir, runLogPrefix+now().Format("20060102_150405")+runLogExt)
		f, err := os.OpenFile(rl.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open run log: %w", err)
		}
		rl.file = f
		handlers = append(handlers, slog.NewTextHandler(f, handlerOpts))
	}

	rl.Logger = slog.New(fanout(handlers))
	return rl, nil
}

// Close flushes and closes the log file.
func (rl *RunLog) Close() error {
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}

// Latest returns the most recently modified run log in dir. Other files,
// such as trace exports, are ignored.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read logs directory: %w", err)
	}
	var (
		latest   string
		latestAt time.Time
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !isRunLog(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest, latestAt = filepath.Join(dir, e.Name()), info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no log files found in %s", dir)
	}
	return latest, nil
}

// fanout sends every record to all of its handlers.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h {
		if hh.Enabled(ctx, r.Level) {
			errs = append(errs, hh.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, hh := range h {
		out[i] = hh.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, hh := range h {
		out[i] = hh.WithGroup(name)
	}
	return out
}
