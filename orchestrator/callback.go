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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// EventAnalysisCompleted is the type of the event published with the
// finished document.
const EventAnalysisCompleted = "analysis.completed"

// CallbackPublisher delivers analysis events to an external consumer.
type CallbackPublisher interface {
	Publish(ctx context.Context, event CallbackEvent) error
}

type CallbackEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   any            `json:"payload,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewCallbackPublisher returns the publisher for the configured target:
// nil when target is empty, stdout for "stdout", an HTTP POST otherwise.
func NewCallbackPublisher(target string) CallbackPublisher {
	switch target {
	case "":
		return nil
	case "stdout":
		return WriterCallbackPublisher{W: os.Stdout}
	default:
		return NewHTTPCallbackPublisher(target, nil)
	}
}

// HTTPCallbackPublisher POSTs events to a configured endpoint as JSON.
type HTTPCallbackPublisher struct {
	client *http.Client
	URL    string
}

// NewHTTPCallbackPublisher constructs an HTTP publisher with an optional custom client.
func NewHTTPCallbackPublisher(url string, client *http.Client) *HTTPCallbackPublisher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPCallbackPublisher{
		client: client,
		URL:    url,
	}
}

func (p *HTTPCallbackPublisher) Publish(ctx context.Context, event CallbackEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %s", resp.Status)
	}
	return nil
}

// WriterCallbackPublisher prints events as indented JSON.
type WriterCallbackPublisher struct {
	W io.Writer
}

func (p WriterCallbackPublisher) Publish(_ context.Context, event CallbackEvent) error {
	encoder := json.NewEncoder(p.W)
	encoder.SetIndent("", "  ")
	return encoder.Encode(event)
}
