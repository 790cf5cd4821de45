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

package agents_test

import (
	"context"
	"sync"
	"testing"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/agentstesting"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/nlpodyssey/productintel/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAddsUsageToExistingContext(t *testing.T) {
	model := agentstesting.NewFakeModel(false, &agentstesting.FakeModelTurnOutput{
		Value: []message.Item{agentstesting.GetTextMessage("hello")},
	})
	model.SetHardcodedUsage(&usage.Usage{Requests: 1, InputTokens: 5, OutputTokens: 3, TotalTokens: 8})

	agent := agents.New("test").WithModelInstance(model)

	tracker := usage.NewUsage()
	ctx := usage.NewContext(context.Background(), tracker)

	result, err := agents.Run(ctx, agent, "hi")
	require.NoError(t, err)

	snap := tracker.Snapshot()
	assert.Equal(t, uint64(1), snap.Requests)
	assert.Equal(t, uint64(5), snap.InputTokens)
	assert.Equal(t, uint64(3), snap.OutputTokens)
	assert.Equal(t, uint64(8), snap.TotalTokens)

	assert.Equal(t, uint64(8), result.Usage.Snapshot().TotalTokens)
}

func TestConcurrentRunsShareUsageTracker(t *testing.T) {
	tracker := usage.NewUsage()
	ctx := usage.NewContext(t.Context(), tracker)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			model := agentstesting.NewFakeModel(false, nil)
			model.SetHardcodedUsage(&usage.Usage{Requests: 1, InputTokens: 2, OutputTokens: 1, TotalTokens: 3})
			model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
				{Value: []message.Item{agentstesting.GetFunctionToolCall("foo", "{}")}},
				{Value: []message.Item{agentstesting.GetTextMessage("done")}},
			})
			agent := agents.New("test").
				WithModelInstance(model).
				WithTools(agentstesting.GetFunctionTool("foo", "bar"))
			_, err := agents.Run(ctx, agent, "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := tracker.Snapshot()
	assert.Equal(t, uint64(6), snap.Requests)
	assert.Equal(t, uint64(18), snap.TotalTokens)
}
