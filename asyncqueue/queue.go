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

// Package asyncqueue provides an unbounded FIFO queue shared by producer
// goroutines and a single consumer, such as the progress events of the
// concurrently running agents.
package asyncqueue

import (
	"iter"
	"sync"
)

// Queue never blocks producers. The zero value is not usable; call New.
type Queue[T any] struct {
	mu     sync.Mutex
	ready  *sync.Cond
	values []T
	closed bool
}

func New[T any]() *Queue[T] {
	q := new(Queue[T])
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Put appends v. It reports false, dropping v, if the queue is closed.
func (q *Queue[T]) Put(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.values = append(q.values, v)
	q.ready.Signal()
	return true
}

// Close stops accepting values. Pending values can still be read.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.ready.Broadcast()
}

// Get blocks until a value is available. It returns false once the queue
// is closed and drained.
func (q *Queue[T]) Get() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.values) == 0 && !q.closed {
		q.ready.Wait()
	}
	var v T
	if len(q.values) == 0 {
		return v, false
	}
	v, q.values[0] = q.values[0], v
	q.values = q.values[1:]
	return v, true
}

// Len returns the number of pending values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.values)
}

// All yields values in order until the queue is closed and drained.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := q.Get()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
