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

package tracing

// Keys of the session metadata attached to every analysis trace. External
// backends group runs by them.
const (
	MetadataSessionID         = "session.id"
	MetadataExperimentID      = "experiment.id"
	MetadataConversationTopic = "conversation.topic"
)

// SessionMetadata builds trace metadata, skipping empty values.
func SessionMetadata(sessionID, experimentID, topic string) map[string]any {
	md := make(map[string]any, 3)
	if sessionID != "" {
		md[MetadataSessionID] = sessionID
	}
	if experimentID != "" {
		md[MetadataExperimentID] = experimentID
	}
	if topic != "" {
		md[MetadataConversationTopic] = topic
	}
	return md
}
