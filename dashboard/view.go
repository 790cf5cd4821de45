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

package dashboard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nlpodyssey/productintel/report"
)

// Defaults and rank weights used when the model gives no numbers. The n-th
// listed item of a chart takes the n-th weight.
var (
	competitorStrength = []float64{85, 70, 60, 55, 45}
	themeWeights       = []float64{25, 20, 18, 15}
	trendImpact        = []float64{8, 7, 6, 5}
	riskSeverity       = []float64{9, 7, 6, 4}
	opportunityScores  = []float64{8.5, 7.8, 7.2, 6.9}
)

const (
	defaultMarketScore      = 75
	defaultPrice            = 100
	defaultPriceText        = "$100"
	defaultSentiment        = 7
	defaultPositiveScore    = 8
	defaultNegativeScore    = 5
	defaultExecutiveSummary = "Analysis completed successfully."
	insightItems            = 4
)

var dollarAmount = regexp.MustCompile(`\$(\d+)`)

// View is the data a dashboard shows, extracted from a result document.
type View struct {
	Product string
	Date    string

	MarketScore     float64
	MarketScoreText string

	Competitors      []string
	OwnBrand         []bool
	CompetitorScores []float64

	Themes      []string
	ThemeValues []float64

	PriceText    string
	CurrentPrice float64
	PriceTrend   string

	Trends      []string
	TrendImpact []float64

	SentimentText    string
	OverallSentiment float64
	PositiveScore    float64
	NegativeScore    float64

	PriorityLabels []string
	PriorityCounts []float64

	Risks        []string
	RiskSeverity []float64

	Opportunities     []string
	OpportunityScores []float64

	Recommendations int

	ExecutiveSummary    string
	Strengths           []string
	Concerns            []string
	MarketOpportunities []string
	NextActions         []string
}

// NewView extracts the dashboard data from doc.
func NewView(doc *report.Document) View {
	product := doc.Agent(report.AgentProduct)
	competitor := doc.Agent(report.AgentCompetitor)
	sentiment := doc.Agent(report.AgentSentiment)
	orchestrated := doc.OrchestratedAnalysis

	v := View{
		Product: doc.Query,
		Date:    doc.Date(),
	}
	if v.Product == "" {
		v.Product = "Product"
	}

	v.MarketScore = orchestrated.Number(defaultMarketScore, "kpi_dashboard", "overall_market_score")
	v.MarketScoreText = orchestrated.String(report.Text(v.MarketScore), "kpi_dashboard", "overall_market_score")

	v.Competitors = firstN(labels(competitor.Slice("competitor_landscape", "primary_competitors")), len(competitorStrength))
	v.CompetitorScores = competitorStrength[:len(v.Competitors)]
	brand := brandOf(doc.Query)
	v.OwnBrand = make([]bool, len(v.Competitors))
	for i, c := range v.Competitors {
		v.OwnBrand[i] = brand != "" && strings.Contains(strings.ToLower(c), brand)
	}

	v.Themes = firstN(labels(sentiment.Slice("positive_sentiment", "key_themes")), len(themeWeights))
	v.ThemeValues = themeWeights[:len(v.Themes)]

	v.PriceText = product.String(defaultPriceText, "price_analysis", "current_price")
	v.CurrentPrice = parsePrice(product, v.PriceText)
	v.PriceTrend = product.String("stable", "price_analysis", "price_trend")

	v.Trends = firstN(labels(competitor.Slice("market_trends", "current_trends")), len(trendImpact))
	v.TrendImpact = trendImpact[:len(v.Trends)]

	v.OverallSentiment = sentiment.Number(defaultSentiment, "sentiment_overview", "overall_sentiment")
	v.SentimentText = sentiment.String(report.Text(v.OverallSentiment), "sentiment_overview", "overall_sentiment")
	v.PositiveScore = sentiment.Number(defaultPositiveScore, "positive_sentiment", "score")
	v.NegativeScore = sentiment.Number(defaultNegativeScore, "negative_sentiment", "score")

	recs := orchestrated.Slice("strategic_recommendations")
	v.Recommendations = len(recs)
	v.PriorityLabels, v.PriorityCounts = priorities(recs)

	v.Risks = firstN(labels(orchestrated.Slice("risk_assessment")), len(riskSeverity))
	v.RiskSeverity = riskSeverity[:len(v.Risks)]

	v.Opportunities = firstN(labels(orchestrated.Slice(
		"consolidated_insights", "competitive_position", "competitive_advantages")), len(opportunityScores))
	v.OpportunityScores = opportunityScores[:len(v.Opportunities)]

	v.ExecutiveSummary = orchestrated.String(defaultExecutiveSummary, "executive_summary")
	v.Strengths = firstN(competitor.Strings("competitor_landscape", "competitive_advantages"), insightItems)
	v.Concerns = firstN(sentiment.Strings("negative_sentiment", "key_issues"), insightItems)
	v.MarketOpportunities = firstN(competitor.Strings("market_share_analysis", "growth_opportunities"), insightItems)
	v.NextActions = firstN(orchestrated.Strings("next_actions"), insightItems)
	return v
}

// priorities counts recommendations per priority, in first-seen order.
// Without structured recommendations a nominal High/Medium/Low split is
// shown.
func priorities(recs []any) ([]string, []float64) {
	var (
		labels []string
		counts []float64
		index  = make(map[string]int)
	)
	for _, rec := range recs {
		m, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		p := report.Object(m).String("Medium", "priority")
		i, seen := index[p]
		if !seen {
			i = len(labels)
			index[p] = i
			labels = append(labels, p)
			counts = append(counts, 0)
		}
		counts[i]++
	}
	if len(labels) == 0 {
		return []string{"High", "Medium", "Low"}, []float64{2, 2, 1}
	}
	return labels, counts
}

func parsePrice(product report.Object, text string) float64 {
	if m := dollarAmount.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return f
		}
	}
	return product.Number(defaultPrice, "price_analysis", "current_price")
}

// labelKeys are tried, in order, to name list items given as objects.
var labelKeys = []string{"name", "title", "risk", "trend", "theme", "description"}

func labels(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			obj := report.Object(m)
			label := ""
			for _, k := range labelKeys {
				if label = obj.String("", k); label != "" {
					break
				}
			}
			if label != "" {
				out = append(out, label)
				continue
			}
		}
		out = append(out, report.Text(item))
	}
	return out
}

func brandOf(query string) string {
	brand, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	return strings.ToLower(brand)
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
