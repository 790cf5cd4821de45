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
	"fmt"
	"strings"
)

func indent(text string, indentLevel int) string {
	indentString := strings.Repeat("  ", indentLevel)

	var sb strings.Builder
	for line := range strings.Lines(text) {
		sb.WriteString(indentString)
		sb.WriteString(line)
	}
	return sb.String()
}

func (r RunResult) String() string {
	var sb strings.Builder

	sb.WriteString("RunResult:")
	if r.LastAgent != nil {
		_, _ = fmt.Fprintf(&sb, "\n- Last agent: Agent(name=%q, ...)", r.LastAgent.Name)
	}
	sb.WriteString("\n- Final output:\n")
	output := r.FinalOutput
	if output == "" {
		output = "None"
	}
	sb.WriteString(indent(output, 2))
	_, _ = fmt.Fprintf(&sb, "\n- %d turn(s)", r.Turns)
	_, _ = fmt.Fprintf(&sb, "\n- %d new item(s)", len(r.NewItems))
	_, _ = fmt.Fprintf(&sb, "\n- %d raw response(s)", len(r.RawResponses))
	if r.Usage != nil {
		u := r.Usage.Snapshot()
		_, _ = fmt.Fprintf(&sb, "\n- Usage: %d request(s), %d input + %d output = %d tokens",
			u.Requests, u.InputTokens, u.OutputTokens, u.TotalTokens)
	}
	sb.WriteString("\n(See `RunResult` for more details)")
	return sb.String()
}
