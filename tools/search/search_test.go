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

package search

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nlpodyssey/productintel/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu      sync.Mutex
	queries []string
	results map[string][]Result
	err     error
}

func (f *fakeEngine) Search(_ context.Context, query string) ([]Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func TestSearcher_Run(t *testing.T) {
	engine := &fakeEngine{results: map[string][]Result{
		"samba vs competitors comparison": {
			{Title: "Samba vs Gazelle", Content: "Close rivals", URL: "https://a.example"},
			{Title: "Samba vs Spezial", Content: "Same family", URL: "https://b.example"},
		},
		"samba competitive landscape sneaker market": {
			{Title: "Sneaker market", Content: "Growing", URL: "https://c.example"},
		},
	}}
	dir := t.TempDir()
	s := &Searcher{Engine: engine, DataDir: dir, Now: func() time.Time { return fixedNow }}

	out := s.Run(t.Context(), KindCompetitor, "samba")

	assert.Equal(t, []string{
		"samba vs competitors comparison",
		"samba market share analysis 2025",
		"samba competitive landscape sneaker market",
	}, engine.queries)

	want := strings.Join([]string{
		"COMPETITOR SEARCH: samba vs competitors comparison\nRESULT 1:\nTitle: Samba vs Gazelle\nContent: Close rivals\nURL: https://a.example\n---\n",
		"COMPETITOR SEARCH: samba vs competitors comparison\nRESULT 2:\nTitle: Samba vs Spezial\nContent: Same family\nURL: https://b.example\n---\n",
		"COMPETITOR SEARCH: samba competitive landscape sneaker market\nRESULT 1:\nTitle: Sneaker market\nContent: Growing\nURL: https://c.example\n---\n",
	}, "\n")
	assert.Equal(t, want, out)

	files, err := ListSaved(dir, KindCompetitor.SearchType())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "competitor_search_20250304_050607.json")}, files)

	saved, err := LoadSaved(files[0])
	require.NoError(t, err)
	assert.Equal(t, "competitor_search", saved.Metadata.SearchType)
	assert.Equal(t, "samba", saved.Metadata.OriginalQuery)
	assert.Equal(t, files[0], saved.Metadata.SavedTo)
	assert.Equal(t, out, saved.FormattedOutput)

	var data Data
	require.NoError(t, json.Unmarshal(saved.SearchResults, &data))
	assert.Equal(t, 3, data.TotalResults)
	require.Len(t, data.Queries, 3)
	assert.Equal(t, 0, data.Queries[1].ResultsCount)
}

func TestSearcher_NoResults(t *testing.T) {
	s := &Searcher{Engine: &fakeEngine{}}
	assert.Equal(t, "No product data found.", s.Run(t.Context(), KindProduct, "nothing"))
	assert.Equal(t, "No sentiment data found.", s.Run(t.Context(), KindSentiment, "nothing"))
}

func TestSearcher_ErrorIsReturnedAsText(t *testing.T) {
	dir := t.TempDir()
	s := &Searcher{
		Engine:  &fakeEngine{err: errors.New("rate limited")},
		DataDir: dir,
		Now:     func() time.Time { return fixedNow },
	}

	out := s.Run(t.Context(), KindSentiment, "samba")
	assert.Equal(t, "Sentiment search error: rate limited", out)

	files, err := ListSaved(dir, "sentiment_search_error")
	require.NoError(t, err)
	require.Len(t, files, 1)

	saved, err := LoadSaved(files[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"rate limited"}`, string(saved.SearchResults))
	assert.Equal(t, out, saved.FormattedOutput)
}

func TestSearcher_Tool(t *testing.T) {
	engine := &fakeEngine{results: map[string][]Result{
		"samba price retail cost MSRP": {{Title: "T", Content: "C", URL: "U"}},
	}}
	s := &Searcher{Engine: engine}

	tool := s.Tool(KindProduct)
	assert.Equal(t, "advanced_product_search", tool.ToolName())
	assert.Equal(t, "object", tool.ParametersSchema()["type"])

	var invokable tools.Invokable = tool
	out, err := invokable.Invoke(t.Context(), nil, `{"query":"samba"}`)
	require.NoError(t, err)
	assert.Equal(t, "SEARCH: samba price retail cost MSRP\nRESULT 1:\nTitle: T\nContent: C\nURL: U\n---\n", out)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("sentiment")
	require.NoError(t, err)
	assert.Equal(t, KindSentiment, k)

	_, err = ParseKind("weather")
	assert.Error(t, err)
}
