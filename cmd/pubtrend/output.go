package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/poller"
	"github.com/abelbrown/pubtrend/internal/render"
	"github.com/abelbrown/pubtrend/internal/trend"
)

// textChartWidth is the widest trend bar in text output.
const textChartWidth = 40

// report is a completed search ready for output.
type report struct {
	Query   string
	Sort    article.SortKey
	Display render.Display
	Series  article.TrendSeries
}

func newReport(query string, key article.SortKey, out poller.Outcome) report {
	return report{
		Query:   query,
		Sort:    key,
		Display: render.Render(article.Order(out.Articles, key)),
		Series:  out.Trend,
	}
}

var writers = map[string]func(io.Writer, report) error{
	"text": writeText,
	"json": writeJSON,
	"html": writeHTML,
}

func writeText(w io.Writer, r report) error {
	chart := trend.NewChart(trend.NewBarSurface(textChartWidth))
	chart.Render(r.Series, r.Query)
	defer chart.Close()

	var b strings.Builder
	b.WriteString(chart.View())
	b.WriteString("\n\n")

	if r.Display.Empty {
		b.WriteString(render.EmptyMessage)
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%d articles, sorted by %s\n\n", len(r.Display.Items), strings.ToLower(r.Sort.Label()))
	for i, item := range r.Display.Items {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, runewidth.Truncate(item.Title, 100, "…"))
		fmt.Fprintf(&b, "    Impact: %.2f (%.0f%%)  Citations: %d  Journal: %s  Year: %s\n",
			item.ImpactScore, item.NormalizedImpact, item.Citations, item.Journal, item.Year)
		if item.Authors != "" {
			fmt.Fprintf(&b, "    %s\n", runewidth.Truncate(item.Authors, 100, "…"))
		}
		if item.URL != "" {
			fmt.Fprintf(&b, "    %s\n", item.URL)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonArticle struct {
	article.Record
	NormalizedImpact float64 `json:"normalized_impact"`
}

type jsonTrend struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Values     []int    `json:"values"`
}

type jsonReport struct {
	Query    string          `json:"query"`
	Sort     article.SortKey `json:"sort"`
	Articles []jsonArticle   `json:"articles"`
	Trend    jsonTrend       `json:"trend"`
}

func writeJSON(w io.Writer, r report) error {
	d := trend.Describe(r.Series, r.Query)
	out := jsonReport{
		Query:    r.Query,
		Sort:     r.Sort,
		Articles: make([]jsonArticle, len(r.Display.Items)),
		Trend: jsonTrend{
			Title:      d.Title,
			Categories: d.Categories,
			Values:     d.Values,
		},
	}
	if out.Trend.Categories == nil {
		out.Trend.Categories, out.Trend.Values = []string{}, []int{}
	}
	for i, item := range r.Display.Items {
		out.Articles[i] = jsonArticle{Record: item.Record, NormalizedImpact: item.NormalizedImpact}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeHTML(w io.Writer, r report) error {
	return render.WriteHTML(w, render.Page{
		Query:     r.Query,
		SortLabel: r.Sort.Label(),
		Display:   r.Display,
		Chart:     trend.Describe(r.Series, r.Query),
	})
}
