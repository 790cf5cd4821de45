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

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const maxQueryRunes = 50

// CleanQuery turns a product query into a file name fragment: letters,
// digits, spaces, '-' and '_' are kept, trailing spaces dropped, spaces
// replaced by '_', and the result cut to 50 characters.
func CleanQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	clean := strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
	if runes := []rune(clean); len(runes) > maxQueryRunes {
		clean = string(runes[:maxQueryRunes])
	}
	return clean
}

// FileName is the name under which a document for query is saved at now.
func FileName(query string, now time.Time) string {
	return fmt.Sprintf("analysis_result_%s_%s.json", CleanQuery(query), now.Format("20060102_150405"))
}

// Save writes doc as indented JSON into dir, filling doc.SaveMetadata, and
// returns the file path.
func Save(doc *Document, dir string, now time.Time) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve results directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	name := FileName(doc.Query, now)
	path := filepath.Join(absDir, name)
	doc.SaveMetadata = &SaveMetadata{
		SavedAt:  Timestamp(now),
		SavedTo:  path,
		Pwd:      pwd,
		Filename: name,
	}

	data, err := Marshal(doc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write analysis results: %w", err)
	}
	return path, nil
}

// Marshal encodes doc as indented JSON without HTML escaping.
func Marshal(doc *Document) ([]byte, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode analysis results: %w", err)
	}
	return []byte(b.String()), nil
}
