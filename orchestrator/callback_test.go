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

package orchestrator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCallbackPublisher(t *testing.T) {
	var got CallbackEvent
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	p := NewHTTPCallbackPublisher(server.URL, server.Client())
	err := p.Publish(t.Context(), CallbackEvent{
		Type:      EventAnalysisCompleted,
		Timestamp: time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
		Payload:   map[string]any{"query": "Samba"},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, EventAnalysisCompleted, got.Type)
	assert.Equal(t, map[string]any{"query": "Samba"}, got.Payload)
}

func TestHTTPCallbackPublisher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewHTTPCallbackPublisher(server.URL, nil).Publish(t.Context(), CallbackEvent{Type: "x"})
	assert.ErrorContains(t, err, "502")
}

func TestNewCallbackPublisher(t *testing.T) {
	assert.Nil(t, NewCallbackPublisher(""))
	assert.IsType(t, WriterCallbackPublisher{}, NewCallbackPublisher("stdout"))
	assert.IsType(t, &HTTPCallbackPublisher{}, NewCallbackPublisher("http://localhost:9/hook"))
}

func TestWriterCallbackPublisher(t *testing.T) {
	var buf bytes.Buffer
	err := WriterCallbackPublisher{W: &buf}.Publish(t.Context(), CallbackEvent{
		Type:      "analysis.completed",
		Timestamp: time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"type\": \"analysis.completed\",\n  \"timestamp\": \"2025-07-01T09:30:00Z\"\n}\n", buf.String())
}
