package poller

import (
	"errors"
	"fmt"

	"github.com/abelbrown/pubtrend/internal/api"
)

// ErrEmptyQuery is returned by NewSession when the query text is blank.
// No network call is made and the controls are left alone.
var ErrEmptyQuery = errors.New("empty query")

// ErrTimeout terminates a session whose job stayed in progress past MaxAttempts.
var ErrTimeout = errors.New("poll attempts exhausted")

// ErrCancelled terminates a session that was cancelled or superseded.
var ErrCancelled = errors.New("search cancelled")

// defaultBackendReason is used when the backend reports a failure without a message.
const defaultBackendReason = "Failed to process the query."

// BackendError is a response whose status is neither in progress nor completed.
type BackendError struct {
	Status  api.Status
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return defaultBackendReason
	}
	return e.Message
}

// TransportError wraps a failed status fetch (network or decode).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Alert returns the user-facing message for a terminal error.
// Cancellation has no alert and returns "".
func Alert(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "Please enter a search term."
	case errors.Is(err, ErrTimeout):
		return "The request is taking longer than usual. Please try again later."
	case errors.Is(err, ErrCancelled):
		return ""
	default:
		return fmt.Sprintf("An error occurred: %s", err.Error())
	}
}
