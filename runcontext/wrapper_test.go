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

package runcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithWrapper(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	w := NewWrapper("payload")
	w.SessionID = "session-1"
	got, ok := FromContext(WithWrapper(context.Background(), w))
	require.True(t, ok)
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, "payload", got.Context)
	assert.NotNil(t, got.Usage)
}
