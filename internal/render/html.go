package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/abelbrown/pubtrend/internal/trend"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).ParseFS(templateFS, "templates/*.html"))

// Page is everything a standalone results page shows.
type Page struct {
	Query     string
	SortLabel string
	Display   Display
	Chart     trend.Descriptor
}

// EmptyMessage is exposed to the template.
func (Page) EmptyMessage() string { return EmptyMessage }

// WriteHTML writes p as a standalone HTML page. The trend is drawn by
// Chart.js from the descriptor's config.
func WriteHTML(w io.Writer, p Page) error {
	if err := pageTmpl.ExecuteTemplate(w, "page.html", p); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
