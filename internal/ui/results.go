package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/render"
	"github.com/abelbrown/pubtrend/internal/trend"
)

// chartWidth is the widest trend bar in cells.
const chartWidth = 40

// impactBarWidth is the width of the per-article impact bar.
const impactBarWidth = 20

// abstractPreview caps the abstract shown under each article.
const abstractPreview = 240

// results is the held state of the last completed search.
// It is created once per App and shared by pointer between model copies;
// only Update mutates it.
type results struct {
	articles []article.Record // as delivered, relevance order
	series   article.TrendSeries
	sortKey  article.SortKey
	query    string
	chart    *trend.Chart
	display  render.Display
	loaded   bool
}

func newResults() *results {
	surface := trend.NewBarSurface(chartWidth)
	surface.Title = ChartTitle
	surface.Label = ChartLabel
	surface.Bar = ChartBar
	surface.Count = ChartLabel
	return &results{
		sortKey: article.DefaultSort,
		chart:   trend.NewChart(surface),
	}
}

// replace installs a completed search: the held set is overwritten, the sort
// key resets to the default and the chart is redrawn.
func (r *results) replace(query string, records []article.Record, series article.TrendSeries) trend.Descriptor {
	r.articles = records
	r.series = series
	r.query = query
	r.sortKey = article.DefaultSort
	r.loaded = true
	d := r.chart.Render(series, query)
	r.rederive()
	return d
}

// setSort re-derives the display for key. No network access.
func (r *results) setSort(key article.SortKey) {
	r.sortKey = key
	r.rederive()
}

func (r *results) rederive() {
	r.display = render.Render(article.Order(r.articles, r.sortKey))
}

// summary describes the held search for the status row.
func (r *results) summary() string {
	years := 0
	if d, ok := r.chart.Descriptor(); ok {
		years = len(d.Categories)
	}
	return fmt.Sprintf("%d articles for %q, %d publications over %d years",
		len(r.articles), r.query, r.series.Total(), years)
}

// close releases the chart.
func (r *results) close() {
	r.chart.Close()
}

// view renders chart and list for the viewport.
func (r *results) view(width int, bar progress.Model) string {
	if !r.loaded {
		return EmptyStyle.Render("Enter a search term and press Enter.")
	}

	var b strings.Builder
	b.WriteString(r.chart.View())
	b.WriteString("\n\n")

	if r.display.Empty {
		b.WriteString(EmptyStyle.Render(render.EmptyMessage))
		return b.String()
	}

	for i, it := range r.display.Items {
		b.WriteString(renderArticle(i+1, it, width, bar))
		b.WriteString("\n")
	}
	return b.String()
}

// renderArticle renders one result: numbered title, impact bar with
// meta fields, authors and an abstract preview.
func renderArticle(n int, it render.Item, width int, bar progress.Model) string {
	textWidth := width - 4
	if textWidth < 20 {
		textWidth = 20
	}

	title := runewidth.Truncate(fmt.Sprintf("%d. %s", n, it.Title), textWidth, "…")

	meta := fmt.Sprintf("Impact: %.2f | Citations: %d | Journal: %s | Year: %s",
		it.ImpactScore, it.Citations, it.Journal, it.Year)
	meta = runewidth.Truncate(meta, textWidth-impactBarWidth-1, "…")

	lines := []string{
		ArticleTitle.Render(title),
		bar.ViewAs(it.NormalizedImpact/100) + " " + ArticleMeta.Render(meta),
	}
	if it.Authors != "" {
		lines = append(lines, ArticleBody.Render(runewidth.Truncate("Authors: "+it.Authors, textWidth, "…")))
	}
	if it.URL != "" {
		lines = append(lines, ArticleBody.Render(runewidth.Truncate(it.URL, textWidth, "…")))
	}
	if it.Abstract != "" {
		abstract := runewidth.Truncate(strings.Join(strings.Fields(it.Abstract), " "), abstractPreview, "…")
		lines = append(lines, ArticleBody.Width(textWidth).Render(abstract))
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(strings.Join(lines, "\n")) + "\n"
}

func newImpactBar() progress.Model {
	return progress.New(
		progress.WithSolidFill(string(colorBar)),
		progress.WithWidth(impactBarWidth),
		progress.WithoutPercentage(),
	)
}
