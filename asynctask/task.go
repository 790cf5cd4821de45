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

// Package asynctask runs functions in goroutines and collects their
// results, recovering panics into errors.
package asynctask

import (
	"context"
	"fmt"
)

type Result[T any] struct {
	Value T
	Error error
}

type TaskFunc[T any] = func(context.Context) (T, error)

// Task is the handle of a function running in its own goroutine.
type Task[T any] struct {
	done   chan struct{}
	result Result[T]
}

// CreateTask starts fn in a new goroutine. The context passed to fn is
// canceled once fn returns.
func CreateTask[T any](ctx context.Context, fn TaskFunc[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				t.result.Error = fmt.Errorf("task panicked: %v", p)
			}
		}()
		t.result.Value, t.result.Error = fn(ctx)
	}()
	return t
}

// Await blocks until the task is done. It can be called any number of times.
func (t *Task[T]) Await() Result[T] {
	<-t.done
	return t.result
}

// Done is closed when the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

type TaskNoValue = Task[struct{}]

func CreateTaskNoValue(ctx context.Context, fn func(context.Context) error) *TaskNoValue {
	return CreateTask(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// AwaitAll waits for every task and returns the results in task order.
func AwaitAll[T any](tasks ...*Task[T]) []Result[T] {
	results := make([]Result[T], 0, len(tasks))
	for _, t := range tasks {
		results = append(results, t.Await())
	}
	return results
}
