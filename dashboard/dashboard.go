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

// Package dashboard renders a result document as a self-contained HTML
// executive dashboard with Plotly charts.
package dashboard

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nlpodyssey/productintel/report"
	"github.com/pkg/browser"
)

// PlotlyURL is the Plotly.js bundle loaded by generated pages.
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

//go:embed dashboard.html
var pageSource string

var page = template.Must(template.New("dashboard").Parse(pageSource))

type pageData struct {
	View      View
	Figure    Figure
	PlotlyURL string
}

// Render writes the dashboard page of doc to w.
func Render(w io.Writer, doc *report.Document) error {
	v := NewView(doc)
	data := pageData{
		View:      v,
		Figure:    BuildFigure(v),
		PlotlyURL: PlotlyURL,
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// FileName is executive_dashboard_<product>_<YYYYMMDD>.html, with spaces
// and path separators of the product replaced by '_'.
func FileName(doc *report.Document) string {
	product := doc.Query
	if product == "" {
		product = "Product"
	}
	product = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(product)
	date := strings.ReplaceAll(doc.Date(), "-", "")
	return fmt.Sprintf("executive_dashboard_%s_%s.html", product, date)
}

// Generate renders doc into dir and returns the written file path.
func Generate(doc *report.Document, dir string) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dashboard directory: %w", err)
	}
	path := filepath.Join(dir, FileName(doc))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write dashboard: %w", err)
	}
	return path, nil
}

// GenerateFromFile loads a saved result document and renders it into dir.
func GenerateFromFile(jsonPath, dir string) (string, error) {
	doc, err := report.Load(jsonPath)
	if err != nil {
		return "", err
	}
	return Generate(doc, dir)
}

// Open shows the dashboard in the system browser.
func Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	browser.Stdout = io.Discard
	if err := browser.OpenFile(abs); err != nil {
		return fmt.Errorf("open dashboard in browser: %w", err)
	}
	return nil
}
