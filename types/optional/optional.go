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

// Package optional holds a small generic "maybe" type used by model settings
// and configuration, where the zero value must be told apart from "unset".
package optional

import (
	"encoding/json"

	"github.com/openai/openai-go/v3/packages/param"
)

// Optional is T or nothing. It encodes to JSON null when absent.
type Optional[T any] struct {
	Present bool
	Value   T
}

func Value[T any](v T) Optional[T] { return Optional[T]{Present: true, Value: v} }

func None[T any]() Optional[T] { return Optional[T]{} }

func (o Optional[T]) Get() (T, bool) { return o.Value, o.Present }

// ValueOrFallback returns the value, or fallback when absent.
func (o Optional[T]) ValueOrFallback(fallback T) T {
	if !o.Present {
		return fallback
	}
	return o.Value
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Present {
		return json.Marshal(o.Value)
	}
	return []byte("null"), nil
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	*o = Optional[T]{}
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Present = true
	return nil
}

// ToParamOptOmitted converts o to an openai-go request field, omitted from
// the request when o is absent.
func ToParamOptOmitted[T comparable](o Optional[T]) param.Opt[T] {
	if v, ok := o.Get(); ok {
		return param.NewOpt(v)
	}
	return param.Opt[T]{}
}
