package trend

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BarSurface draws horizontal bar charts as text, one row per year.
type BarSurface struct {
	// Width is the widest bar in cells.
	Width int

	Title lipgloss.Style
	Label lipgloss.Style
	Bar   lipgloss.Style
	Count lipgloss.Style
}

// NewBarSurface returns a surface with unstyled output, suitable for
// plain text.
func NewBarSurface(width int) *BarSurface {
	return &BarSurface{
		Width: width,
		Title: lipgloss.NewStyle().Bold(true),
		Label: lipgloss.NewStyle(),
		Bar:   lipgloss.NewStyle(),
		Count: lipgloss.NewStyle(),
	}
}

// Draw renders d. Bar lengths scale from zero to the largest value;
// negative counts draw an empty bar.
func (s *BarSurface) Draw(d Descriptor) Instance {
	var b strings.Builder
	b.WriteString(s.Title.Render(d.Title))
	b.WriteString("\n")

	if len(d.Categories) == 0 {
		b.WriteString(s.Label.Render("(no data)"))
		return &barInstance{view: b.String()}
	}

	labelWidth := 0
	for _, c := range d.Categories {
		if w := lipgloss.Width(c); w > labelWidth {
			labelWidth = w
		}
	}

	width := s.Width
	if width < 1 {
		width = 40
	}
	maxVal := d.Max()

	for i, c := range d.Categories {
		v := d.Values[i]
		n := 0
		if maxVal > 0 {
			n = v * width / maxVal
		}
		if v > 0 && n == 0 {
			n = 1
		}
		if n < 0 {
			n = 0
		}
		label := s.Label.Width(labelWidth).Align(lipgloss.Right).Render(c)
		bar := s.Bar.Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%s │%s %s\n", label, bar, s.Count.Render(fmt.Sprint(v)))
	}
	fmt.Fprintf(&b, "%s  %s: %s", strings.Repeat(" ", labelWidth), d.XTitle, d.DatasetLabel)

	return &barInstance{view: b.String()}
}

type barInstance struct {
	view      string
	destroyed bool
}

func (i *barInstance) View() string {
	if i.destroyed {
		return ""
	}
	return i.view
}

func (i *barInstance) Destroy() {
	i.destroyed = true
	i.view = ""
}
