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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Metadata describes a saved search file.
type Metadata struct {
	SearchType    string `json:"search_type"`
	OriginalQuery string `json:"original_query"`
	Timestamp     string `json:"timestamp"`
	Pwd           string `json:"pwd"`
	SavedTo       string `json:"saved_to"`
}

// SavedSearch is the content of a saved search file.
type SavedSearch struct {
	Metadata        Metadata        `json:"metadata"`
	SearchResults   json.RawMessage `json:"search_results"`
	FormattedOutput string          `json:"formatted_output"`
}

// Save writes dir/<searchType>_<YYYYMMDD_HHMMSS>.json and returns its path.
// A numeric suffix keeps searches of the same second apart, also when
// they are saved concurrently.
func Save(dir, searchType, query string, results any, formatted string, now time.Time) (string, error) {
	rawResults, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to JSON-marshal search results: %w", err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := createUnique(dir, fmt.Sprintf("%s_%s", searchType, now.Format("20060102_150405")))
	if err != nil {
		return "", fmt.Errorf("failed to create saved search: %w", err)
	}
	path := f.Name()
	pwd, _ := os.Getwd()

	saved := SavedSearch{
		Metadata: Metadata{
			SearchType:    searchType,
			OriginalQuery: query,
			Timestamp:     now.Format(time.RFC3339Nano),
			Pwd:           pwd,
			SavedTo:       path,
		},
		SearchResults:   rawResults,
		FormattedOutput: formatted,
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = errors.Join(enc.Encode(saved), f.Close()); err != nil {
		return "", fmt.Errorf("failed to write saved search: %w", err)
	}
	return path, nil
}

// createUnique creates dir/base.json, or dir/base_<n>.json with the
// smallest free n. O_EXCL makes the claim atomic.
func createUnique(dir, base string) (*os.File, error) {
	name := base + ".json"
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			return f, err
		}
		name = fmt.Sprintf("%s_%d.json", base, i)
	}
}

// ListSaved lists the saved searches in dir, newest first. A non-empty
// searchType, such as "product_search", restricts the listing. A missing
// directory yields an empty list.
func ListSaved(dir, searchType string) ([]string, error) {
	pattern := "*.json"
	if searchType != "" {
		pattern = searchType + "_*.json"
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if _, err = os.Stat(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return []string{}, nil
	}
	slices.Sort(files)
	slices.Reverse(files)
	return files, nil
}

func LoadSaved(path string) (*SavedSearch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error loading search file %s: %w", path, err)
	}
	var saved SavedSearch
	if err = json.Unmarshal(b, &saved); err != nil {
		return nil, fmt.Errorf("error decoding search file %s: %w", path, err)
	}
	return &saved, nil
}
