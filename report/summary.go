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
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 80

type styles struct {
	Rule    lipgloss.Style
	Title   lipgloss.Style
	Section lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Rule: r.NewStyle().
			Foreground(lipgloss.Color("#767677")),
		Title: r.NewStyle().
			Bold(true),
		Section: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#004CFF")),
		Label: r.NewStyle().
			Faint(true),
		Success: r.NewStyle().
			Foreground(lipgloss.Color("#00A651")).
			Bold(true),
		Failure: r.NewStyle().
			Foreground(lipgloss.Color("#E31E24")).
			Bold(true),
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("#767677")),
	}
}

// Printer writes the console summary of a document.
type Printer struct {
	w        io.Writer
	st       styles
	markdown *glamour.TermRenderer
}

// NewPrinter returns a Printer for w. Colors follow the capabilities of
// w, so files and buffers get plain text.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	p := &Printer{w: w, st: newStyles(r)}

	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(ruleWidth-4))
	if err == nil {
		p.markdown = md
	}
	return p
}

func (p *Printer) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) section(name string) {
	p.printf("\n%s\n", p.st.Section.Render(name+":"))
}

func (p *Printer) rule() {
	p.printf("%s\n", p.st.Rule.Render(strings.Repeat("=", ruleWidth)))
}

// Summary prints the analysis summary.
func (p *Printer) Summary(doc *Document) {
	p.printf("\n")
	p.rule()
	p.printf("%s\n", p.st.Title.Render("MULTI-AGENT E-COMMERCE ANALYSIS SUMMARY"))
	p.rule()

	p.printf("Product Analyzed: %s\n", orDefault(doc.Query, "Unknown"))
	p.printf("Analysis Date: %s\n", orDefault(doc.Timestamp, "Unknown"))
	if doc.SessionID != "" {
		p.printf("Session ID: %s\n", doc.SessionID)
	}

	es := doc.ExecutionSummary
	p.section("Execution Status")
	p.printf("  Agents Completed: %d/%d\n", es.AgentsCompleted, es.TotalAgents)
	if es.OrchestrationSuccess {
		p.printf("  Orchestration: %s\n", p.st.Success.Render("Success"))
	} else {
		p.printf("  Orchestration: %s\n", p.st.Failure.Render("Failed"))
	}
	if es.ExecutionMode != ModeSimple {
		p.printf("  Telemetry: %s (Context: %s)\n",
			choose(es.TelemetryEnabled, "Enabled", "Disabled"),
			choose(es.TelemetryContextSet, "Set", "Not Set"))
	}
	if es.DurationSeconds > 0 {
		p.printf("  Duration: %.1fs\n", es.DurationSeconds)
	}
	if u := es.Usage; u != nil && u.Requests > 0 {
		p.printf("  Model Usage: %d requests, %d tokens\n", u.Requests, u.TotalTokens)
	}

	orchestrated := doc.OrchestratedAnalysis
	orchestrationOK := len(orchestrated) > 0 && !orchestrated.Failed()

	if orchestrationOK {
		if kpis := orchestrated.Map("kpi_dashboard"); len(kpis) > 0 {
			p.section("Business Metrics")
			p.printf("  Overall Market Score: %s/100\n", kpis.String("N/A", "overall_market_score"))
			p.printf("  Customer Satisfaction: %s/100\n", kpis.String("N/A", "customer_satisfaction"))
			p.printf("  Competitive Strength: %s/100\n", kpis.String("N/A", "competitive_strength"))
			p.printf("  Growth Potential: %s/100\n", kpis.String("N/A", "growth_potential"))
		}
		if summary := orchestrated.String("", "executive_summary"); summary != "" {
			p.section("Executive Summary")
			p.printf("%s", p.renderMarkdown(summary))
		}
	}

	p.section("Agent Results")
	for _, name := range doc.AgentNames() {
		p.agentResult(name, doc.Agent(name))
	}

	if orchestrationOK {
		if recs := orchestrated.Slice("strategic_recommendations"); len(recs) > 0 {
			p.section("Top Strategic Recommendations")
			for i, rec := range recs[:min(3, len(recs))] {
				if m, ok := asMap(rec); ok {
					text := m.String(Text(rec), "recommendation")
					p.printf("    %d. [%s] %s...\n", i+1, m.String("Medium", "priority"), truncate(text, 80))
				} else {
					p.printf("    %d. %s...\n", i+1, truncate(Text(rec), 80))
				}
			}
		}
	}

	p.printf("\n")
	p.rule()
}

func (p *Printer) agentResult(name string, result Object) {
	title := capitalize(name)
	if result.Failed() {
		p.printf("  %s: %s - %s\n", title, p.st.Failure.Render("Failed"), orDefault(result.Error(), "Unknown error"))
		return
	}
	p.printf("  %s: %s\n", title, p.st.Success.Render("Success"))

	switch {
	case name == AgentProduct && result.Has("price_analysis"):
		p.printf("    - Price: %s | Popularity: %s/100\n",
			result.String("Unknown", "price_analysis", "current_price"),
			result.String("Unknown", "popularity_metrics", "popularity_score"))
	case name == AgentCompetitor && result.Has("competitor_landscape"):
		competitors := result.Strings("competitor_landscape", "primary_competitors")
		if len(competitors) > 0 {
			p.printf("    - Top Competitors: %s\n", strings.Join(competitors[:min(3, len(competitors))], ", "))
		}
	case name == AgentSentiment && result.Has("sentiment_overview"):
		p.printf("    - Customer Sentiment: %s/10\n",
			result.String("Unknown", "sentiment_overview", "overall_sentiment"))
	}
}

func (p *Printer) renderMarkdown(md string) string {
	if p.markdown != nil {
		if out, err := p.markdown.Render(md); err == nil {
			return out
		}
	}
	return "  " + md + "\n"
}

// Outcome prints the final status line and the written files.
func (p *Printer) Outcome(doc *Document, savedPath, dashboardPath string) {
	if !doc.Succeeded() {
		p.printf("%s\n", p.st.Failure.Render("Analysis failed: "+doc.Error))
	} else {
		p.printf("Analysis completed with %.1f%% agent success rate\n", doc.SuccessRate()*100)
	}
	if savedPath != "" {
		p.printf("Results saved to: %s\n", savedPath)
	}
	if dashboardPath != "" {
		p.printf("Executive dashboard: %s\n", dashboardPath)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
