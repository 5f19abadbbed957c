package trend

import (
	"github.com/abelbrown/pubtrend/internal/article"
)

// Instance is one drawn chart. Destroy releases it; View on a destroyed
// instance returns "".
type Instance interface {
	View() string
	Destroy()
}

// Surface draws descriptors.
type Surface interface {
	Draw(d Descriptor) Instance
}

// Chart owns at most one live Instance. Render destroys the previous
// instance before drawing the next one.
type Chart struct {
	surface Surface
	current Instance
	last    Descriptor
}

// NewChart returns a Chart drawing on s.
func NewChart(s Surface) *Chart {
	return &Chart{surface: s}
}

// Render replaces the current chart with one for series and returns its
// descriptor.
func (c *Chart) Render(series article.TrendSeries, query string) Descriptor {
	d := Describe(series, query)
	c.Close()
	c.current = c.surface.Draw(d)
	c.last = d
	return d
}

// Descriptor returns the descriptor of the live chart.
func (c *Chart) Descriptor() (Descriptor, bool) {
	return c.last, c.current != nil
}

// View returns the live chart, or "" when none is drawn.
func (c *Chart) View() string {
	if c.current == nil {
		return ""
	}
	return c.current.View()
}

// Close destroys the live instance, if any.
func (c *Chart) Close() {
	if c.current != nil {
		c.current.Destroy()
		c.current = nil
		c.last = Descriptor{}
	}
}
