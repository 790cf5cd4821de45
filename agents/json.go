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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nlpodyssey/productintel/tracing"
	"github.com/xeipuuv/gojsonschema"
)

func ValidateJSON(ctx context.Context, schema *gojsonschema.Schema, jsonValue string) (err error) {
	defer func() {
		if err != nil {
			AttachErrorToCurrentSpan(ctx, tracing.SpanError{Message: "Invalid JSON provided"})
		}
	}()

	problems, err := validationProblems(schema, jsonValue)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("JSON validation failed with the following errors:\n")
	for _, p := range problems {
		_, _ = fmt.Fprintf(&sb, "- %s\n", p)
	}
	return NewModelBehaviorError(sb.String())
}

func validationProblems(schema *gojsonschema.Schema, jsonValue string) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonValue))
	if err != nil {
		return nil, ModelBehaviorErrorf("failed to load and validate JSON: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

const jsonFence = "```json"

// ExtractJSON pulls a JSON object out of free-form model text.
//
// The first ```json fenced block wins; its closing fence is optional.
// Without a fence, the first balanced {...} run is decoded. Failures are
// reported in-band as a map with "error" and "raw_text" keys, so callers
// always get a document they can annotate and persist.
func ExtractJSON(text string) map[string]any {
	if start := indexFold(text, jsonFence); start >= 0 {
		start += len(jsonFence)
		body := text[start:]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return decodeExtracted(strings.TrimSpace(body), text)
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return extractionError("No JSON found", text)
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return decodeExtracted(text[start:i+1], text)
			}
		}
	}
	return extractionError("Could not parse JSON", text)
}

func decodeExtracted(candidate, text string) map[string]any {
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return extractionError(fmt.Sprintf("JSON decode error: %s", err), text)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return extractionError(fmt.Sprintf("Extraction error: expected a JSON object, got %T", v), text)
	}
	return m
}

func extractionError(msg, text string) map[string]any {
	return map[string]any{"error": msg, "raw_text": text}
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], needle) {
			return i
		}
	}
	return -1
}

// PrettyJSON marshals v with two-space indentation and without HTML
// escaping. It falls back to fmt formatting on error.
func PrettyJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
