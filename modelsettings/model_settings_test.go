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

package modelsettings

import (
	"encoding/json"
	"testing"

	"github.com/nlpodyssey/productintel/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSettings_JSON(t *testing.T) {
	t.Run("only sampling parameters", func(t *testing.T) {
		data, err := json.Marshal(ModelSettings{
			Temperature: optional.Value(0.0),
			MaxTokens:   optional.Value[int64](4000),
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"temperature": 0,
			"top_p": null,
			"max_tokens": 4000,
			"parallel_tool_calls": null
		}`, string(data))
	})

	t.Run("tool options", func(t *testing.T) {
		data, err := json.Marshal(ModelSettings{
			ToolChoice:        ToolChoiceRequired,
			ParallelToolCalls: optional.Value(false),
			ExtraHeaders:      map[string]string{"X-Run": "1"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"temperature": null,
			"top_p": null,
			"max_tokens": null,
			"tool_choice": "required",
			"parallel_tool_calls": false,
			"extra_headers": {"X-Run": "1"}
		}`, string(data))
	})
}

func TestModelSettings_Resolve(t *testing.T) {
	agentSettings := ModelSettings{
		Temperature:  optional.Value(0.7),
		MaxTokens:    optional.Value[int64](4000),
		ToolChoice:   ToolChoiceAuto,
		ExtraHeaders: map[string]string{"X-Agent": "product"},
	}

	t.Run("nothing to override", func(t *testing.T) {
		assert.Equal(t, agentSettings, agentSettings.Resolve(ModelSettings{}))
	})

	t.Run("run settings take precedence", func(t *testing.T) {
		got := agentSettings.Resolve(ModelSettings{
			Temperature:       optional.Value(0.0),
			TopP:              optional.Value(0.9),
			ParallelToolCalls: optional.Value(true),
		})
		assert.Equal(t, ModelSettings{
			Temperature:       optional.Value(0.0),
			TopP:              optional.Value(0.9),
			MaxTokens:         optional.Value[int64](4000),
			ToolChoice:        ToolChoiceAuto,
			ParallelToolCalls: optional.Value(true),
			ExtraHeaders:      map[string]string{"X-Agent": "product"},
		}, got)
	})

	t.Run("headers are copied", func(t *testing.T) {
		headers := map[string]string{"X-Run": "a"}
		got := agentSettings.Resolve(ModelSettings{ExtraHeaders: headers})
		headers["X-Run"] = "b"
		assert.Equal(t, map[string]string{"X-Run": "a"}, got.ExtraHeaders)
	})
}

func TestModelSettings_Map(t *testing.T) {
	assert.Empty(t, ModelSettings{}.Map())

	ms := ModelSettings{
		Temperature: optional.Value(0.7),
		MaxTokens:   optional.Value[int64](2048),
		ToolChoice:  ToolChoiceNone,
	}
	assert.Equal(t, map[string]any{
		"temperature": 0.7,
		"max_tokens":  int64(2048),
		"tool_choice": "none",
	}, ms.Map())
}
