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

package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Object is a JSON object produced by a model. Its shape is only loosely
// known, so lookups take a key path and fall back to a default instead of
// failing.
type Object map[string]any

// Get walks path through nested objects.
func (o Object) Get(path ...string) (any, bool) {
	var cur any = map[string]any(o)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Has reports whether path resolves to a non-null value.
func (o Object) Has(path ...string) bool {
	_, ok := o.Get(path...)
	return ok
}

// String returns the value at path as text. Numbers and booleans are
// formatted; other non-string values yield def.
func (o Object) String(def string, path ...string) string {
	v, ok := o.Get(path...)
	if !ok {
		return def
	}
	if s, ok := scalarText(v); ok {
		return s
	}
	return def
}

// Number returns the value at path as a float. Numeric strings such as
// "8.5", "72%" or "7/10" are parsed by their leading number.
func (o Object) Number(def float64, path ...string) float64 {
	v, ok := o.Get(path...)
	if !ok {
		return def
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

// Strings returns the list at path with every element as text. Objects
// inside the list are rendered as compact JSON.
func (o Object) Strings(path ...string) []string {
	items := o.Slice(path...)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, Text(item))
	}
	return out
}

// Map returns the object at path, or nil.
func (o Object) Map(path ...string) Object {
	v, ok := o.Get(path...)
	if !ok {
		return nil
	}
	m, _ := asMap(v)
	return m
}

// Slice returns the list at path, or nil.
func (o Object) Slice(path ...string) []any {
	v, ok := o.Get(path...)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// Error returns the "error" entry set on failed agent results.
func (o Object) Error() string {
	return o.String("", "error")
}

// Failed reports whether the object carries a truthy "error" entry.
func (o Object) Failed() bool {
	v, ok := o.Get("error")
	if !ok {
		return false
	}
	switch e := v.(type) {
	case string:
		return e != ""
	case bool:
		return e
	default:
		return true
	}
}

// Text renders any decoded JSON value for display.
func Text(v any) string {
	if s, ok := scalarText(v); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func asMap(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		return leadingNumber(x)
	default:
		return 0, false
	}
}

func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	return f, err == nil
}
