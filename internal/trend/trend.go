// Package trend builds publication-trend chart descriptors and manages the
// lifetime of the chart drawn from them.
package trend

import (
	"fmt"

	"github.com/abelbrown/pubtrend/internal/article"
)

const (
	datasetLabel = "Number of Articles"
	xTitle       = "Year"
)

// Descriptor is a drawing-engine-neutral bar chart.
// Categories are ascending years; Values are aligned with them.
type Descriptor struct {
	Type         string
	Title        string
	Categories   []string
	Values       []int
	DatasetLabel string
	XTitle       string
	YTitle       string
	BeginAtZero  bool
}

// Title returns the chart title for a query, embedding it literally.
func Title(query string) string {
	return fmt.Sprintf("Publication Trend for \"%s\"", query)
}

// Describe converts series into a bar chart descriptor for query.
// A nil series yields a chart with no categories.
func Describe(series article.TrendSeries, query string) Descriptor {
	years := series.Years()
	values := make([]int, len(years))
	for i, y := range years {
		values[i] = series[y]
	}
	return Descriptor{
		Type:         "bar",
		Title:        Title(query),
		Categories:   years,
		Values:       values,
		DatasetLabel: datasetLabel,
		XTitle:       xTitle,
		YTitle:       datasetLabel,
		BeginAtZero:  true,
	}
}

// Max returns the largest value, or 0.
func (d Descriptor) Max() int {
	m := 0
	for _, v := range d.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// Config returns the descriptor as a Chart.js configuration object.
func (d Descriptor) Config() map[string]any {
	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	values := d.Values
	if values == nil {
		values = []int{}
	}
	return map[string]any{
		"type": d.Type,
		"data": map[string]any{
			"labels": categories,
			"datasets": []map[string]any{{
				"label":           d.DatasetLabel,
				"data":            values,
				"backgroundColor": "rgba(0, 119, 182, 0.7)",
				"borderColor":     "rgba(0, 119, 182, 1)",
				"borderWidth":     1,
			}},
		},
		"options": map[string]any{
			"responsive": true,
			"plugins": map[string]any{
				"legend": map[string]any{"display": false},
				"title":  map[string]any{"display": true, "text": d.Title},
			},
			"scales": map[string]any{
				"y": map[string]any{
					"beginAtZero": d.BeginAtZero,
					"title":       map[string]any{"display": true, "text": d.YTitle},
				},
				"x": map[string]any{
					"title": map[string]any{"display": true, "text": d.XTitle},
				},
			},
		},
	}
}
