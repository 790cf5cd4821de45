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
	"cmp"

	"github.com/nlpodyssey/productintel/modelsettings"
	"github.com/nlpodyssey/productintel/tools"
	"github.com/nlpodyssey/productintel/types/message"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

type chatCmplConverter struct{}

// ChatCmplConverter translates between conversation items and the Chat
// Completions request and response types of openai-go.
func ChatCmplConverter() chatCmplConverter { return chatCmplConverter{} }

// ConvertToolChoice maps the "auto", "required" and "none" modes. The
// union field is named after "auto" but carries any of them.
func (chatCmplConverter) ConvertToolChoice(tc modelsettings.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	var out openai.ChatCompletionToolChoiceOptionUnionParam
	if tc != "" {
		out.OfAuto = param.NewOpt(tc.String())
	}
	return out
}

// ConvertResponseFormat requests a JSON schema response only for strict
// schemas. Lenient schemas are enforced by the instructions instead, as the
// agents are allowed to wrap their JSON in prose.
func (chatCmplConverter) ConvertResponseFormat(schema OutputSchema) openai.ChatCompletionNewParamsResponseFormatUnion {
	if schema == nil || !schema.IsStrictJSONSchema() {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "final_output",
				Schema: schema.JSONSchema(),
				Strict: param.NewOpt(true),
			},
		},
	}
}

// MessageToOutputItems converts the assistant message of a completion.
func (chatCmplConverter) MessageToOutputItems(msg openai.ChatCompletionMessage) []message.Item {
	var items []message.Item
	switch {
	case msg.Content != "":
		items = append(items, message.AssistantMessage(msg.Content))
	case msg.Refusal != "":
		items = append(items, message.AssistantMessage(msg.Refusal))
	}
	for _, tc := range msg.ToolCalls {
		items = append(items, message.FunctionCall(tc.ID, tc.Function.Name, tc.Function.Arguments))
	}
	return items
}

// ItemsToMessages converts conversation items to chat messages. Function
// calls are folded into the preceding assistant message, as the Chat
// Completions API expects.
func (chatCmplConverter) ItemsToMessages(system string, items []message.Item) ([]openai.ChatCompletionMessageParamUnion, error) {
	var b chatMessages
	if system != "" {
		b.add(openai.SystemMessage(system))
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, UserErrorf("invalid conversation item: %w", err)
		}
		switch item.Type {
		case message.TypeMessage:
			switch item.Role {
			case message.RoleAssistant:
				b.flush()
				b.assistant().Content.OfString = param.NewOpt(item.Content)
			case message.RoleSystem:
				b.add(openai.SystemMessage(item.Content))
			default:
				b.add(openai.UserMessage(item.Content))
			}
		case message.TypeFunctionCall:
			args := cmp.Or(item.Arguments, "{}")
			asst := b.assistant()
			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID:       item.CallID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{Name: item.Name, Arguments: args},
				},
			})
		case message.TypeFunctionCallOutput:
			b.add(openai.ToolMessage(item.Output, item.CallID))
		}
	}
	b.flush()
	return b.out, nil
}

// chatMessages accumulates messages, keeping the assistant message under
// construction open until a message of another kind arrives.
type chatMessages struct {
	out  []openai.ChatCompletionMessageParamUnion
	open *openai.ChatCompletionAssistantMessageParam
}

func (b *chatMessages) flush() {
	if b.open != nil {
		b.out = append(b.out, openai.ChatCompletionMessageParamUnion{OfAssistant: b.open})
		b.open = nil
	}
}

func (b *chatMessages) add(m openai.ChatCompletionMessageParamUnion) {
	b.flush()
	b.out = append(b.out, m)
}

func (b *chatMessages) assistant() *openai.ChatCompletionAssistantMessageParam {
	if b.open == nil {
		b.open = new(openai.ChatCompletionAssistantMessageParam)
	}
	return b.open
}

func (chatCmplConverter) ToolToOpenai(tool tools.Tool) openai.ChatCompletionToolUnionParam {
	def := openai.FunctionDefinitionParam{
		Name:       tool.ToolName(),
		Parameters: tool.ParametersSchema(),
	}
	if d := tool.ToolDescription(); d != "" {
		def.Description = param.NewOpt(d)
	}
	return openai.ChatCompletionFunctionTool(def)
}
