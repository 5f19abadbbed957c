package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/pubtrend/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if result := debugOverlay(nil, "", 80, 24); result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	now := time.Now()
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now})
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now})
	ring.Push(otel.Event{Kind: otel.KindSearchPoll, Time: now})
	ring.Push(otel.Event{Kind: otel.KindSearchRetry, Time: now})
	ring.Push(otel.Event{Kind: otel.KindSearchComplete, Time: now})
	ring.Push(otel.Event{Kind: otel.KindSearchFail, Time: now})

	result := debugOverlay(ring, "", 100, 40)

	for _, want := range []string{
		"Search Stats",
		"2 submitted, 1 complete, 1 failed, 0 timed out",
		"1 checks, 1 retries",
		"6 / 64 events",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindSearchPoll, Time: time.Now(), Status: "pending", Attempt: 3, SeqID: "abcdef1234567890"})
	ring.Push(otel.Event{Kind: otel.KindSearchFail, Time: time.Now(), Err: "bad query"})
	ring.Push(otel.Event{Kind: otel.KindSortChange, Time: time.Now(), Msg: "year-desc"})

	result := debugOverlay(ring, "", 100, 40)

	for _, want := range []string{"Recent Events", "pending", "#3", "seq:abcdef12", "ERR:bad query", "year-desc"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayCurrentSearchTrail(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	now := time.Now()
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now, SeqID: "old"})
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now, SeqID: "cur"})
	ring.Push(otel.Event{Kind: otel.KindSearchPoll, Time: now, SeqID: "cur"})
	ring.Push(otel.Event{Kind: otel.KindSearchRetry, Time: now, SeqID: "cur"})
	ring.Push(otel.Event{Kind: otel.KindSearchSupersede, Time: now, SeqID: "old"})

	result := debugOverlay(ring, "cur", 100, 40)
	for _, want := range []string{"Current Search", "3 events: submit → poll → retry"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}

	if result := debugOverlay(ring, "", 100, 40); strings.Contains(result, "Current Search") {
		t.Errorf("no current search should omit the trail, got:\n%s", result)
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindSearchPoll, Time: time.Now()})
	}

	result := debugOverlay(ring, "", 80, 10)
	if result == "" {
		t.Fatal("overlay should still render with small height")
	}
	// maxHeight = 6 content lines plus border and padding
	if lines := strings.Count(result, "\n"); lines > 12 {
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugToggle(t *testing.T) {
	ring := otel.NewRingBuffer(16)
	app := NewApp(AppConfig{Ring: ring})
	app.ready = true
	app.width = 80
	app.height = 24

	if app.showDebug {
		t.Error("debug should be hidden initially")
	}

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	updated := model.(App)
	if !updated.showDebug {
		t.Error("ctrl+d should show debug overlay")
	}
	if view := updated.View(); !strings.Contains(view, "[DEBUG]") {
		t.Errorf("debug view should contain '[DEBUG]', got:\n%s", view)
	}

	// Typing is swallowed while the overlay is up.
	model, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	updated = model.(App)
	if updated.query.Value() != "" {
		t.Errorf("overlay should swallow input, query = %q", updated.query.Value())
	}

	model, _ = updated.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	updated = model.(App)
	if updated.showDebug {
		t.Error("second ctrl+d should hide debug overlay")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"},
		{-5 * time.Second, "0ms"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.dur); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}
