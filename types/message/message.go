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

// Package message defines the provider-neutral conversation items exchanged
// between the run loop, the model adapters and session storage.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ItemType string

const (
	TypeMessage            ItemType = "message"
	TypeFunctionCall       ItemType = "function_call"
	TypeFunctionCallOutput ItemType = "function_call_output"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Item is a single entry of a conversation.
//
// A message uses Role and Content. A function call uses CallID, Name and
// Arguments (a JSON string). A function call output uses CallID, Name and
// Output.
type Item struct {
	Type      ItemType `json:"type"`
	Role      Role     `json:"role,omitempty"`
	Content   string   `json:"content,omitempty"`
	CallID    string   `json:"call_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Arguments string   `json:"arguments,omitempty"`
	Output    string   `json:"output,omitempty"`
}

func UserMessage(content string) Item {
	return Item{Type: TypeMessage, Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Item {
	return Item{Type: TypeMessage, Role: RoleAssistant, Content: content}
}

func SystemMessage(content string) Item {
	return Item{Type: TypeMessage, Role: RoleSystem, Content: content}
}

func FunctionCall(callID, name, arguments string) Item {
	return Item{Type: TypeFunctionCall, CallID: callID, Name: name, Arguments: arguments}
}

func FunctionCallOutput(callID, name, output string) Item {
	return Item{Type: TypeFunctionCallOutput, CallID: callID, Name: name, Output: output}
}

func (it Item) IsMessage() bool      { return it.Type == TypeMessage }
func (it Item) IsFunctionCall() bool { return it.Type == TypeFunctionCall }
func (it Item) IsFunctionCallOutput() bool {
	return it.Type == TypeFunctionCallOutput
}

// Validate reports structurally broken items, such as those read back from
// a corrupted session row.
func (it Item) Validate() error {
	switch it.Type {
	case TypeMessage:
		switch it.Role {
		case RoleSystem, RoleUser, RoleAssistant:
			return nil
		default:
			return fmt.Errorf("message item has unknown role %q", it.Role)
		}
	case TypeFunctionCall:
		if it.CallID == "" || it.Name == "" {
			return fmt.Errorf("function call item requires call_id and name")
		}
		return nil
	case TypeFunctionCallOutput:
		if it.CallID == "" {
			return fmt.Errorf("function call output item requires call_id")
		}
		return nil
	default:
		return fmt.Errorf("unknown item type %q", it.Type)
	}
}

// Export renders the item as a generic map for trace spans.
func (it Item) Export() map[string]any {
	switch it.Type {
	case TypeFunctionCall:
		return map[string]any{
			"role":    string(RoleAssistant),
			"content": fmt.Sprintf("%s(%s)", it.Name, it.Arguments),
		}
	case TypeFunctionCallOutput:
		return map[string]any{
			"role":    "tool",
			"content": it.Output,
		}
	default:
		return map[string]any{
			"role":    string(it.Role),
			"content": it.Content,
		}
	}
}

func Unmarshal(data []byte) (Item, error) {
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return Item{}, err
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// TextOutput concatenates the content of the assistant messages in items.
func TextOutput(items []Item) string {
	var sb strings.Builder
	for _, it := range items {
		if it.IsMessage() && it.Role == RoleAssistant {
			sb.WriteString(it.Content)
		}
	}
	return sb.String()
}

// TrimLeadingOrphans drops function call outputs at the head of a history
// window whose matching call fell outside the window.
func TrimLeadingOrphans(items []Item) []Item {
	for len(items) > 0 && items[0].IsFunctionCallOutput() {
		items = items[1:]
	}
	return items
}
