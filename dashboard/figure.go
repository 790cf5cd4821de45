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
	"fmt"
	"html"
)

// Palette of the dashboard.
const (
	ColorBlack  = "#000000"
	ColorWhite  = "#FFFFFF"
	ColorGray   = "#767677"
	ColorBlue   = "#004CFF"
	ColorGreen  = "#00A651"
	ColorOrange = "#FF6900"
	ColorRed    = "#E31E24"
)

// Trace is one Plotly trace. Plotly's schema is open-ended, so traces
// and layout stay plain JSON objects.
type Trace map[string]any

// Figure is a Plotly figure, as consumed by Plotly.newPlot.
type Figure struct {
	Data   []Trace        `json:"data"`
	Layout map[string]any `json:"layout"`
}

const (
	gridRows          = 3
	gridCols          = 3
	verticalSpacing   = 0.12
	horizontalSpacing = 0.2 / gridCols
	figureHeight      = 1200
)

var subplotTitles = [gridRows * gridCols]string{
	"Market Position Score",
	"Competitive Landscape",
	"Customer Sentiment",
	"Price Analysis",
	"Market Trends",
	"Satisfaction Breakdown",
	"Strategic Priorities",
	"Risk Assessment",
	"Growth Opportunities",
}

// cell is the paper-coordinates rectangle of a grid cell. Row 1 is the
// top row.
type cell struct {
	x, y [2]float64
}

func gridCell(row, col int) cell {
	w := (1 - horizontalSpacing*(gridCols-1)) / gridCols
	h := (1 - verticalSpacing*(gridRows-1)) / gridRows
	x0 := float64(col-1) * (w + horizontalSpacing)
	y1 := 1 - float64(row-1)*(h+verticalSpacing)
	return cell{x: [2]float64{x0, x0 + w}, y: [2]float64{y1 - h, y1}}
}

// figureBuilder lays traces out on the 3x3 grid. Cartesian traces get their
// own numbered axis pair; domain traces (indicator, pie) use the cell.
type figureBuilder struct {
	fig  Figure
	axes int
}

func newFigureBuilder() *figureBuilder {
	return &figureBuilder{fig: Figure{Layout: make(map[string]any)}}
}

func (b *figureBuilder) addDomain(row, col int, t Trace) {
	c := gridCell(row, col)
	t["domain"] = map[string]any{"x": c.x, "y": c.y}
	b.fig.Data = append(b.fig.Data, t)
}

func (b *figureBuilder) addCartesian(row, col int, t Trace) {
	b.axes++
	c := gridCell(row, col)
	suffix := ""
	if b.axes > 1 {
		suffix = fmt.Sprint(b.axes)
	}
	t["xaxis"] = "x" + suffix
	t["yaxis"] = "y" + suffix
	b.fig.Layout["xaxis"+suffix] = map[string]any{"domain": c.x, "anchor": "y" + suffix, "automargin": true}
	b.fig.Layout["yaxis"+suffix] = map[string]any{"domain": c.y, "anchor": "x" + suffix, "automargin": true}
	b.fig.Data = append(b.fig.Data, t)
}

// plotlyText escapes text for Plotly labels, which accept a subset of
// HTML tags.
func plotlyText(s string) string {
	return html.EscapeString(s)
}

func plotlyTexts(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = plotlyText(v)
	}
	return out
}

func cycle(colors []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = colors[i%len(colors)]
	}
	return out
}

// BuildFigure returns the 3x3 executive figure for v.
func BuildFigure(v View) Figure {
	b := newFigureBuilder()
	product := plotlyText(v.Product)

	b.addDomain(1, 1, Trace{
		"type":  "indicator",
		"mode":  "gauge+number",
		"value": v.MarketScore,
		"title": map[string]any{"text": product + "<br>Market Score"},
		"gauge": map[string]any{
			"axis": map[string]any{"range": []float64{0, 100}},
			"bar":  map[string]any{"color": ColorBlack},
			"steps": []map[string]any{
				{"range": []float64{0, 50}, "color": "lightgray"},
				{"range": []float64{50, 80}, "color": ColorGray},
				{"range": []float64{80, 100}, "color": ColorGreen},
			},
			"threshold": map[string]any{
				"line":      map[string]any{"color": ColorRed, "width": 4},
				"thickness": 0.75,
				"value":     85,
			},
		},
	})

	competitorColors := make([]string, len(v.Competitors))
	for i := range v.Competitors {
		competitorColors[i] = ColorGray
		if v.OwnBrand[i] {
			competitorColors[i] = ColorBlack
		}
	}
	b.addCartesian(1, 2, Trace{
		"type":   "bar",
		"x":      plotlyTexts(v.Competitors),
		"y":      v.CompetitorScores,
		"marker": map[string]any{"color": competitorColors},
		"name":   "Market Strength",
	})

	b.addDomain(1, 3, Trace{
		"type":   "pie",
		"labels": plotlyTexts(v.Themes),
		"values": v.ThemeValues,
		"marker": map[string]any{"colors": []string{ColorGreen, ColorBlue, ColorGray, ColorOrange}},
		"hole":   0.3,
	})

	p := v.CurrentPrice
	b.addCartesian(2, 1, Trace{
		"type":   "scatter",
		"x":      []string{"Q1", "Q2", "Q3", "Q4", "Current"},
		"y":      []float64{95, 98, p, p + 2, p + 1},
		"mode":   "lines+markers",
		"line":   map[string]any{"color": ColorBlue, "width": 3},
		"marker": map[string]any{"size": 8, "color": ColorBlack},
		"name":   "Price Trend",
	})

	b.addCartesian(2, 2, Trace{
		"type":        "bar",
		"x":           v.TrendImpact,
		"y":           plotlyTexts(v.Trends),
		"orientation": "h",
		"marker":      map[string]any{"color": ColorOrange},
		"name":        "Trend Impact",
	})

	b.addCartesian(2, 3, Trace{
		"type":   "bar",
		"x":      []string{"Overall", "Positive Aspects", "Negative Aspects"},
		"y":      []float64{v.OverallSentiment, v.PositiveScore, v.NegativeScore},
		"marker": map[string]any{"color": []string{ColorBlue, ColorGreen, ColorRed}},
		"name":   "Satisfaction Scores",
	})

	b.addCartesian(3, 1, Trace{
		"type":   "bar",
		"x":      plotlyTexts(v.PriorityLabels),
		"y":      v.PriorityCounts,
		"marker": map[string]any{"color": cycle([]string{ColorRed, ColorOrange, ColorGray}, len(v.PriorityLabels))},
		"name":   "Priority Actions",
	})

	b.addCartesian(3, 2, Trace{
		"type":   "bar",
		"x":      plotlyTexts(v.Risks),
		"y":      v.RiskSeverity,
		"marker": map[string]any{"color": ColorRed},
		"name":   "Risk Level",
	})

	sizes := make([]float64, len(v.OpportunityScores))
	for i, s := range v.OpportunityScores {
		sizes[i] = s * 5
	}
	b.addCartesian(3, 3, Trace{
		"type": "scatter",
		"x":    v.OpportunityScores,
		"y":    plotlyTexts(v.Opportunities),
		"mode": "markers",
		"marker": map[string]any{
			"size":    sizes,
			"color":   ColorGreen,
			"opacity": 0.7,
		},
		"name": "Growth Potential",
	})

	annotations := make([]map[string]any, 0, len(subplotTitles))
	for i, title := range subplotTitles {
		c := gridCell(i/gridCols+1, i%gridCols+1)
		annotations = append(annotations, map[string]any{
			"text":      title,
			"x":         (c.x[0] + c.x[1]) / 2,
			"y":         c.y[1],
			"xref":      "paper",
			"yref":      "paper",
			"xanchor":   "center",
			"yanchor":   "bottom",
			"showarrow": false,
			"font":      map[string]any{"size": 16},
		})
	}

	b.fig.Layout["annotations"] = annotations
	b.fig.Layout["height"] = figureHeight
	b.fig.Layout["title"] = map[string]any{
		"text": fmt.Sprintf("Intelligent e-commerce Dashboard: %s Strategic Analysis", product),
		"x":    0.5,
		"font": map[string]any{"size": 24, "color": ColorBlack, "family": "Arial Black"},
	}
	b.fig.Layout["font"] = map[string]any{"family": "Arial", "size": 11}
	b.fig.Layout["showlegend"] = false
	b.fig.Layout["plot_bgcolor"] = ColorWhite
	b.fig.Layout["paper_bgcolor"] = "#f8f9fa"
	return b.fig
}
