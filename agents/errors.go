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
	"errors"
	"fmt"
)

// AgentsError is the base error of the agent runtime.
type AgentsError struct {
	Err error
}

func (err *AgentsError) Error() string {
	if err == nil || err.Err == nil {
		return "agents error"
	}
	return err.Err.Error()
}

func (err *AgentsError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func NewAgentsError(message string) *AgentsError {
	return &AgentsError{Err: errors.New(message)}
}

func AgentsErrorf(format string, a ...any) *AgentsError {
	return &AgentsError{Err: fmt.Errorf(format, a...)}
}

// MaxTurnsExceededError is returned when the maximum number of turns is exceeded.
type MaxTurnsExceededError struct {
	*AgentsError
}

func (err MaxTurnsExceededError) Unwrap() error { return err.AgentsError }

func MaxTurnsExceededErrorf(format string, a ...any) MaxTurnsExceededError {
	return MaxTurnsExceededError{AgentsError: AgentsErrorf(format, a...)}
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. calling a tool that doesn't exist, or providing malformed JSON.
type ModelBehaviorError struct {
	*AgentsError
}

func (err ModelBehaviorError) Unwrap() error { return err.AgentsError }

func NewModelBehaviorError(message string) ModelBehaviorError {
	return ModelBehaviorError{AgentsError: NewAgentsError(message)}
}

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError{AgentsError: AgentsErrorf(format, a...)}
}

// UserError is returned when the caller misconfigures an agent or a provider.
type UserError struct {
	*AgentsError
}

func (err UserError) Unwrap() error { return err.AgentsError }

func NewUserError(message string) UserError {
	return UserError{AgentsError: NewAgentsError(message)}
}

func UserErrorf(format string, a ...any) UserError {
	return UserError{AgentsError: AgentsErrorf(format, a...)}
}

// ProviderError wraps a failure reported by a model provider's API.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (err ProviderError) Error() string {
	return fmt.Sprintf("%s model %q: %v", err.Provider, err.Model, err.Err)
}

func (err ProviderError) Unwrap() error { return err.Err }

func newProviderError(provider, model string, err error) error {
	return ProviderError{Provider: provider, Model: model, Err: err}
}
