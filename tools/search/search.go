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

// Package search provides the web search tools of the specialist agents.
//
// Each kind of search runs three query variants and hands the model a plain
// text digest of the hits. Every search, successful or not, is saved as a
// JSON file so runs can be inspected afterwards.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nlpodyssey/productintel/agents"
	"github.com/nlpodyssey/productintel/tools"
)

type Kind string

const (
	KindProduct    Kind = "product"
	KindCompetitor Kind = "competitor"
	KindSentiment  Kind = "sentiment"
)

var Kinds = []Kind{KindProduct, KindCompetitor, KindSentiment}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown search kind %q", s)
}

// SearchType is the prefix of the files saved for this kind.
func (k Kind) SearchType() string { return string(k) + "_search" }

// ToolName is the name the model calls the tool by.
func (k Kind) ToolName() string { return "advanced_" + string(k) + "_search" }

func (k Kind) description() string {
	switch k {
	case KindProduct:
		return "Advanced product data search with multiple sources"
	case KindCompetitor:
		return "Advanced competitor analysis search"
	default:
		return "Advanced customer sentiment search"
	}
}

func (k Kind) queries(query string) []string {
	switch k {
	case KindProduct:
		return []string{
			query + " price retail cost MSRP",
			query + " availability stock inventory",
			query + " popularity trends demand 2025",
		}
	case KindCompetitor:
		return []string{
			query + " vs competitors comparison",
			query + " market share analysis 2025",
			query + " competitive landscape sneaker market",
		}
	default:
		return []string{
			query + " customer reviews ratings",
			query + " user experience feedback",
			query + " complaints issues problems",
		}
	}
}

func (k Kind) label() string {
	if k == KindProduct {
		return "SEARCH"
	}
	return strings.ToUpper(string(k)) + " SEARCH"
}

// Engine runs a single web query.
type Engine interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// QueryResults holds the hits of one query variant.
type QueryResults struct {
	SearchQuery  string   `json:"search_query"`
	ResultsCount int      `json:"results_count"`
	Results      []Result `json:"results"`
}

// Data is the structured record of a search.
type Data struct {
	Queries      []QueryResults `json:"queries"`
	TotalResults int            `json:"total_results"`
}

// Searcher runs searches and saves their records.
type Searcher struct {
	Engine Engine

	// DataDir receives the saved searches. Empty disables saving.
	DataDir string

	Now func() time.Time
}

func (s *Searcher) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run searches the three query variants of kind and returns the digest.
// Failures are returned as text for the model to read, as the error is not
// the model's to fix.
func (s *Searcher) Run(ctx context.Context, kind Kind, query string) string {
	data, formatted, err := s.run(ctx, kind, query)
	if err != nil {
		msg := fmt.Sprintf("%s search error: %s", capitalize(string(kind)), err)
		agents.Logger().Warn("Search failed",
			slog.String("kind", string(kind)),
			slog.String("query", query),
			slog.String("error", err.Error()))
		s.save(kind.SearchType()+"_error", query, map[string]any{"error": err.Error()}, msg)
		return msg
	}
	s.save(kind.SearchType(), query, data, formatted)
	return formatted
}

func (s *Searcher) run(ctx context.Context, kind Kind, query string) (Data, string, error) {
	var (
		data   Data
		blocks []string
	)
	for _, q := range kind.queries(query) {
		results, err := s.Engine.Search(ctx, q)
		if err != nil {
			return Data{}, "", err
		}
		data.Queries = append(data.Queries, QueryResults{
			SearchQuery:  q,
			ResultsCount: len(results),
			Results:      results,
		})
		data.TotalResults += len(results)

		for i, r := range results {
			blocks = append(blocks, fmt.Sprintf(
				"%s: %s\nRESULT %d:\nTitle: %s\nContent: %s\nURL: %s\n---\n",
				kind.label(), q, i+1, r.Title, r.Content, r.URL))
		}
	}

	if len(blocks) == 0 {
		return data, fmt.Sprintf("No %s data found.", kind), nil
	}
	return data, strings.Join(blocks, "\n"), nil
}

func (s *Searcher) save(searchType, query string, results any, formatted string) {
	if s.DataDir == "" {
		return
	}
	path, err := Save(s.DataDir, searchType, query, results, formatted, s.now())
	if err != nil {
		agents.Logger().Error("Error saving search data", slog.String("error", err.Error()))
		return
	}
	agents.Logger().Info("Search data saved", slog.String("path", path))
}

type toolArgs struct {
	Query string `json:"query" jsonschema:"description=The product or topic to search for"`
}

// Tool wraps the searcher as the function tool of the given kind.
func (s *Searcher) Tool(kind Kind) tools.Function {
	return tools.NewFunctionTool(kind.ToolName(), kind.description(),
		func(ctx context.Context, args toolArgs) (string, error) {
			return s.Run(ctx, kind, args.Query), nil
		})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
