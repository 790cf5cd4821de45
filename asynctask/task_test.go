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

package asynctask

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCreateTask(t *testing.T) {
	task := CreateTask(t.Context(), func(context.Context) (int, error) {
		return 42, nil
	})
	r := task.Await()
	require.NoError(t, r.Error)
	assert.Equal(t, 42, r.Value)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done not closed after Await")
	}
	assert.Equal(t, r, task.Await())
}

func TestCreateTask_ErrorKeepsValue(t *testing.T) {
	boom := errors.New("boom")
	r := CreateTask(t.Context(), func(context.Context) (string, error) {
		return "partial", boom
	}).Await()
	assert.ErrorIs(t, r.Error, boom)
	assert.Equal(t, "partial", r.Value)
}

func TestCreateTask_Panic(t *testing.T) {
	r := CreateTask(t.Context(), func(context.Context) (int, error) {
		panic("agent exploded")
	}).Await()
	assert.EqualError(t, r.Error, "task panicked: agent exploded")
}

func TestCreateTask_ContextCanceledAfterReturn(t *testing.T) {
	var taskCtx context.Context
	CreateTask(t.Context(), func(ctx context.Context) (int, error) {
		taskCtx = ctx
		return 0, nil
	}).Await()
	assert.ErrorIs(t, taskCtx.Err(), context.Canceled)
}

func TestCreateTask_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	task := CreateTask(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()
	assert.ErrorIs(t, task.Await().Error, context.Canceled)
}

func TestCreateTaskNoValue(t *testing.T) {
	var ran atomic.Bool
	r := CreateTaskNoValue(t.Context(), func(context.Context) error {
		ran.Store(true)
		return nil
	}).Await()
	assert.NoError(t, r.Error)
	assert.True(t, ran.Load())
}

func TestAwaitAll(t *testing.T) {
	delays := []time.Duration{30 * time.Millisecond, 0, 10 * time.Millisecond}

	tasks := make([]*Task[int], len(delays))
	for i, d := range delays {
		tasks[i] = CreateTask(t.Context(), func(context.Context) (int, error) {
			time.Sleep(d)
			if i == 1 {
				return 0, errors.New("second failed")
			}
			return i * 10, nil
		})
	}

	results := AwaitAll(tasks...)
	require.Len(t, results, 3)
	assert.Equal(t, 0, results[0].Value)
	assert.EqualError(t, results[1].Error, "second failed")
	assert.Equal(t, 20, results[2].Value)
	assert.NoError(t, results[2].Error)
}
