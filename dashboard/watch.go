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

package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Directory the dashboard is written to.
	Dir string
	// Quiet period after the last change before re-rendering.
	// Defaults to DefaultDebounce.
	Debounce time.Duration
	// Called after every render attempt.
	OnRender func(path string, err error)
}

// Watch renders the dashboard of jsonPath, then renders it again every time
// the file changes, until ctx is done. The parent directory is watched so
// that editors replacing the file are noticed.
func Watch(ctx context.Context, jsonPath string, opts WatchOptions) error {
	target, err := filepath.Abs(jsonPath)
	if err != nil {
		return err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	onRender := opts.OnRender
	if onRender == nil {
		onRender = func(string, error) {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	render := func() {
		path, err := GenerateFromFile(target, opts.Dir)
		onRender(path, err)
	}
	render()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		case <-timer.C:
			render()
		}
	}
}
