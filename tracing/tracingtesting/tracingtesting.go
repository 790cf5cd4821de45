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

package tracingtesting

import (
	"testing"

	"github.com/nlpodyssey/productintel/tracing"
)

// Setup installs a global trace provider recording into a new Recorder,
// until the test ends.
func Setup(t *testing.T) *Recorder {
	t.Helper()

	previous := tracing.GetTraceProvider()
	processor := NewRecorder()

	provider := tracing.NewTraceProvider()
	provider.SetProcessors([]tracing.Processor{processor})
	tracing.SetTraceProvider(provider)

	t.Cleanup(func() {
		provider.Shutdown(t.Context())
		tracing.SetTraceProvider(previous)
	})
	return processor
}
