// Package ui provides the Bubble Tea TUI for pubtrend.
package ui

import "github.com/abelbrown/pubtrend/internal/api"

// StatusChecked is sent when one status check for a poll sequence returns.
type StatusChecked struct {
	SeqID   string // poll sequence correlation ID
	Attempt int
	Resp    api.Response
	Err     error
}

// RetryDue is sent when the retry delay of a poll sequence has elapsed.
type RetryDue struct {
	SeqID   string
	Attempt int
}
