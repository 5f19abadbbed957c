// Package otel records structured events for pubtrend.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Poll sequence events
	KindSearchSubmit    EventKind = "search.submit"
	KindSearchPoll      EventKind = "search.poll"
	KindSearchRetry     EventKind = "search.retry"
	KindSearchComplete  EventKind = "search.complete"
	KindSearchFail      EventKind = "search.fail"
	KindSearchTimeout   EventKind = "search.timeout"
	KindSearchCancel    EventKind = "search.cancel"
	KindSearchSupersede EventKind = "search.supersede"

	// Presentation events
	KindSortChange  EventKind = "sort.change"
	KindChartRender EventKind = "chart.render"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "ui", "poller", "main"
	SessionID string         `json:"session_id,omitempty"` // same for entire app run
	SeqID     string         `json:"seq,omitempty"`        // poll sequence correlation ID
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Attempt   int            `json:"attempt,omitempty"`
	Count     int            `json:"count,omitempty"`
	Status    string         `json:"status,omitempty"` // backend job status
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
