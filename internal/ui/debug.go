package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/pubtrend/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (2) and vertical padding (2).
const debugPanelChrome = 4

// debugOverlay renders poll statistics, the event trail of the current
// search (seqID, may be empty) and recent events.
// Returns "" if ring is nil.
func debugOverlay(ring *otel.RingBuffer, seqID string, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Search Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d submitted, %d complete, %d failed, %d timed out",
		stats[otel.KindSearchSubmit], stats[otel.KindSearchComplete], stats[otel.KindSearchFail], stats[otel.KindSearchTimeout]))
	lines = append(lines, fmt.Sprintf("  Stopped:    %d cancelled, %d superseded",
		stats[otel.KindSearchCancel], stats[otel.KindSearchSupersede]))
	lines = append(lines, fmt.Sprintf("  Polling:    %d checks, %d retries",
		stats[otel.KindSearchPoll], stats[otel.KindSearchRetry]))
	lines = append(lines, fmt.Sprintf("  Display:    %d sort changes, %d charts",
		stats[otel.KindSortChange], stats[otel.KindChartRender]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if trail := ring.Sequence(seqID); len(trail) > 0 {
		kinds := make([]string, len(trail))
		for i, e := range trail {
			kinds[i] = strings.TrimPrefix(string(e.Kind), "search.")
		}
		lines = append(lines, DebugHeaderStyle.Render("Current Search"))
		lines = append(lines, fmt.Sprintf("  %d events: %s", len(trail),
			runewidth.Truncate(strings.Join(kinds, " → "), 70, "…")))
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Status != "" {
			line += "  " + e.Status
		}
		if e.Attempt > 0 {
			line += fmt.Sprintf("  #%d", e.Attempt)
		}
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 40, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		if e.SeqID != "" {
			seq := e.SeqID
			if len(seq) > 8 {
				seq = seq[:8]
			}
			line += "  seq:" + seq
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
