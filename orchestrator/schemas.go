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

// The output shapes requested by the prompts. They are reflected into
// non-strict schemas: extra keys are fine, and mismatches end up in the
// "validation_errors" entry of a result instead of failing the agent.

type ProductAnalysis struct {
	ProductName   string `json:"product_name,omitempty"`
	PriceAnalysis struct {
		CurrentPrice string   `json:"current_price"`
		PriceRange   string   `json:"price_range,omitempty"`
		PriceTrend   string   `json:"price_trend,omitempty"`
		Discounts    []string `json:"discounts,omitempty"`
	} `json:"price_analysis"`
	Availability struct {
		Status   string   `json:"status,omitempty"`
		Channels []string `json:"channels,omitempty"`
	} `json:"availability,omitempty"`
	PopularityMetrics struct {
		PopularityScore   float64  `json:"popularity_score" jsonschema:"minimum=0,maximum=100"`
		BestsellerSignals []string `json:"bestseller_signals,omitempty"`
	} `json:"popularity_metrics"`
	KeyFindings []string `json:"key_findings,omitempty"`
	DataSources []string `json:"data_sources,omitempty"`
}

type CompetitorAnalysis struct {
	CompetitorLandscape struct {
		PrimaryCompetitors    []string `json:"primary_competitors"`
		CompetitiveAdvantages []string `json:"competitive_advantages,omitempty"`
		MarketPosition        string   `json:"market_position,omitempty"`
	} `json:"competitor_landscape"`
	MarketTrends struct {
		CurrentTrends []string `json:"current_trends,omitempty"`
	} `json:"market_trends,omitempty"`
	MarketShareAnalysis struct {
		GrowthOpportunities []string `json:"growth_opportunities,omitempty"`
		Threats             []string `json:"threats,omitempty"`
	} `json:"market_share_analysis,omitempty"`
	KeyFindings []string `json:"key_findings,omitempty"`
}

type SentimentAnalysis struct {
	SentimentOverview struct {
		OverallSentiment float64 `json:"overall_sentiment" jsonschema:"minimum=0,maximum=10"`
		ReviewsAnalyzed  int     `json:"reviews_analyzed,omitempty"`
		Summary          string  `json:"summary,omitempty"`
	} `json:"sentiment_overview"`
	PositiveSentiment struct {
		Score     float64  `json:"score" jsonschema:"minimum=0,maximum=10"`
		KeyThemes []string `json:"key_themes,omitempty"`
	} `json:"positive_sentiment,omitempty"`
	NegativeSentiment struct {
		Score     float64  `json:"score" jsonschema:"minimum=0,maximum=10"`
		KeyIssues []string `json:"key_issues,omitempty"`
	} `json:"negative_sentiment,omitempty"`
	KeyFindings []string `json:"key_findings,omitempty"`
}

type Recommendation struct {
	Priority       string `json:"priority,omitempty" jsonschema:"enum=High,enum=Medium,enum=Low"`
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale,omitempty"`
}

type StrategicAnalysis struct {
	ExecutiveSummary string `json:"executive_summary"`
	KPIDashboard     struct {
		OverallMarketScore   float64 `json:"overall_market_score" jsonschema:"minimum=0,maximum=100"`
		CustomerSatisfaction float64 `json:"customer_satisfaction,omitempty" jsonschema:"minimum=0,maximum=100"`
		CompetitiveStrength  float64 `json:"competitive_strength,omitempty" jsonschema:"minimum=0,maximum=100"`
		GrowthPotential      float64 `json:"growth_potential,omitempty" jsonschema:"minimum=0,maximum=100"`
	} `json:"kpi_dashboard"`
	ConsolidatedInsights map[string]any   `json:"consolidated_insights,omitempty"`
	Recommendations      []Recommendation `json:"strategic_recommendations"`
	RiskAssessment       any              `json:"risk_assessment,omitempty"`
	NextActions          []string         `json:"next_actions,omitempty"`
}
