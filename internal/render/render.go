// Package render turns an ordered article list into a display model.
//
// Render never re-sorts: ordering is article.Order's job and happens first.
package render

import (
	"github.com/abelbrown/pubtrend/internal/article"
)

// EmptyMessage is shown in place of the list when a search returns nothing.
const EmptyMessage = "No relevant articles found for this query."

// Item is one article plus its impact bar width.
type Item struct {
	article.Record
	// NormalizedImpact is the bar width in [0,100], relative to the
	// highest impact score in the list.
	NormalizedImpact float64
}

// Display is the renderable result list.
// Empty is set instead of returning a present-but-empty Items slice.
type Display struct {
	Empty bool
	Items []Item
}

// Render builds the display model for records, preserving their order.
// A nil or empty slice yields the empty-state marker.
func Render(records []article.Record) Display {
	if len(records) == 0 {
		return Display{Empty: true}
	}

	maxImpact := 0.0
	for _, r := range records {
		if r.ImpactScore > maxImpact {
			maxImpact = r.ImpactScore
		}
	}

	items := make([]Item, len(records))
	for i, r := range records {
		items[i] = Item{Record: r, NormalizedImpact: normalize(r.ImpactScore, maxImpact)}
	}
	return Display{Items: items}
}

func normalize(score, maxImpact float64) float64 {
	if maxImpact <= 0 {
		return 0
	}
	n := score / maxImpact * 100
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
