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

package agents

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var agentsLogger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Logger is the logger of the agent runtime: stderr at info level until the
// application installs its own with SetLogger.
func Logger() *slog.Logger {
	return agentsLogger.Load()
}

// SetLogger replaces the runtime logger. Nil is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		agentsLogger.Store(l)
	}
}

// DontLogModelData keeps prompts, model answers and tool arguments out of
// traces. Set PRODUCTINTEL_DONT_LOG_MODEL_DATA to "1" or "true" to enable it.
var DontLogModelData = envFlag("PRODUCTINTEL_DONT_LOG_MODEL_DATA")

func envFlag(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true":
		return true
	}
	return false
}
