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

package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nlpodyssey/productintel/types/optional"
)

// ConsoleSpanExporter is an Exporter that prints one line per trace or span.
type ConsoleSpanExporter struct {
	W io.Writer
}

func (c ConsoleSpanExporter) Export(_ context.Context, items []any) error {
	w := c.W
	if w == nil {
		w = os.Stdout
	}
	for _, item := range items {
		switch v := item.(type) {
		case Trace:
			_, _ = fmt.Fprintf(w, "[Exporter] Export trace_id=%s, name=%s\n", v.TraceID(), v.Name())
		case Span:
			_, _ = fmt.Fprintf(w, "[Exporter] Export span: %+v\n", v.Export())
		default:
			return fmt.Errorf("ConsoleSpanExporter: unexpected item type %T", item)
		}
	}
	return nil
}

// FileSpanExporter appends every exported trace and span as one JSON line
// to a file, creating its directory on first use.
type FileSpanExporter struct {
	path string
	mu   sync.Mutex
}

func NewFileSpanExporter(path string) *FileSpanExporter {
	return &FileSpanExporter{path: path}
}

func (f *FileSpanExporter) Path() string { return f.path }

func (f *FileSpanExporter) Export(_ context.Context, items []any) (err error) {
	if len(items) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer func() {
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}()

	enc := json.NewEncoder(file)
	for _, item := range items {
		var exported map[string]any
		switch v := item.(type) {
		case Trace:
			exported = v.Export()
		case Span:
			exported = v.Export()
		default:
			return fmt.Errorf("FileSpanExporter: unexpected item type %T", item)
		}
		if exported == nil {
			continue
		}
		if err = enc.Encode(exported); err != nil {
			return fmt.Errorf("encode trace item: %w", err)
		}
	}
	return nil
}

// BatchTraceProcessor queues started traces and finished spans, and hands
// them to an Exporter in batches from a background goroutine.
type BatchTraceProcessor struct {
	exporter      Exporter
	maxQueueSize  int
	maxBatchSize  int
	scheduleDelay time.Duration

	queueMu sync.Mutex
	queue   []any

	exportMu sync.Mutex

	workerOnce sync.Once
	wake       chan struct{}
	stop       chan struct{}
	workerDone chan struct{}
	shutdown   atomic.Bool
}

type BatchTraceProcessorParams struct {
	// The exporter to use.
	Exporter Exporter
	// The maximum number of items to store in the queue.
	// After this, items are dropped. Default: 8192.
	MaxQueueSize optional.Optional[int]
	// The maximum number of items to export in a single batch.
	// Default: 128.
	MaxBatchSize optional.Optional[int]
	// The delay between scheduled exports. Default: 5 seconds.
	ScheduleDelay optional.Optional[time.Duration]
}

func NewBatchTraceProcessor(params BatchTraceProcessorParams) *BatchTraceProcessor {
	return &BatchTraceProcessor{
		exporter:      params.Exporter,
		maxQueueSize:  params.MaxQueueSize.ValueOrFallback(8192),
		maxBatchSize:  params.MaxBatchSize.ValueOrFallback(128),
		scheduleDelay: params.ScheduleDelay.ValueOrFallback(5 * time.Second),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		workerDone:    make(chan struct{}),
	}
}

func (b *BatchTraceProcessor) OnTraceStart(ctx context.Context, trace Trace) error {
	b.enqueue(ctx, trace)
	return nil
}

// OnTraceEnd does nothing: traces are exported when they start.
func (b *BatchTraceProcessor) OnTraceEnd(context.Context, Trace) error { return nil }

// OnSpanStart does nothing: spans are exported when they end.
func (b *BatchTraceProcessor) OnSpanStart(context.Context, Span) error { return nil }

func (b *BatchTraceProcessor) OnSpanEnd(ctx context.Context, span Span) error {
	b.enqueue(ctx, span)
	return nil
}

// Shutdown stops the worker and exports everything still queued.
func (b *BatchTraceProcessor) Shutdown(ctx context.Context) error {
	if !b.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	neverStarted := false
	b.workerOnce.Do(func() { neverStarted = true })
	if !neverStarted {
		close(b.stop)
		<-b.workerDone
	}
	return b.exportBatches(ctx)
}

// ForceFlush exports every queued item synchronously.
func (b *BatchTraceProcessor) ForceFlush(ctx context.Context) error {
	return b.exportBatches(ctx)
}

func (b *BatchTraceProcessor) enqueue(ctx context.Context, item any) {
	if b.shutdown.Load() {
		Logger().Warn("Trace processor is shut down, dropping item.")
		return
	}

	b.queueMu.Lock()
	if len(b.queue) >= b.maxQueueSize {
		b.queueMu.Unlock()
		Logger().Warn("Queue is full, dropping trace item.")
		return
	}
	b.queue = append(b.queue, item)
	full := len(b.queue) >= b.maxBatchSize
	b.queueMu.Unlock()

	b.workerOnce.Do(func() { go b.run(context.WithoutCancel(ctx)) })

	if full {
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
}

func (b *BatchTraceProcessor) run(ctx context.Context) {
	defer close(b.workerDone)

	ticker := time.NewTicker(b.scheduleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
		case <-b.wake:
		}
		if err := b.exportBatches(ctx); err != nil {
			Logger().Error("BatchTraceProcessor export error", slog.String("error", err.Error()))
		}
	}
}

func (b *BatchTraceProcessor) exportBatches(ctx context.Context) error {
	b.exportMu.Lock()
	defer b.exportMu.Unlock()

	for {
		b.queueMu.Lock()
		n := min(len(b.queue), b.maxBatchSize)
		batch := make([]any, n)
		copy(batch, b.queue[:n])
		b.queue = b.queue[n:]
		b.queueMu.Unlock()

		if n == 0 {
			return nil
		}
		if err := b.exporter.Export(ctx, batch); err != nil {
			return err
		}
	}
}
