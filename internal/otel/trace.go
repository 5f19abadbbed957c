package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is read from the UI goroutine and written by tests.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("PUBTREND_TRACE") != "")
}

// TraceEnabled reports whether PUBTREND_TRACE is set. When true every
// message reaching the TUI is logged as trace.msg_received.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides PUBTREND_TRACE. cmd/pubtrend calls it for
// --trace.
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
