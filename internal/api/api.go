// Package api defines the wire contract of the asynchronous search endpoint:
// GET /api/search?q=<query>&max_results=<n>.
package api

import (
	"github.com/abelbrown/pubtrend/internal/article"
)

// SearchPath is the status endpoint polled by clients.
const SearchPath = "/api/search"

// Query parameter names.
const (
	ParamQuery      = "q"
	ParamMaxResults = "max_results"
)

// DefaultMaxResults is used when the client omits max_results.
const DefaultMaxResults = 20

// Status is the backend-reported progress of a search job.
type Status string

const (
	StatusAccepted   Status = "accepted"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// InProgress reports whether the job is still being worked on and the
// client should check again later.
func (s Status) InProgress() bool {
	switch s {
	case StatusAccepted, StatusPending, StatusProcessing:
		return true
	}
	return false
}

// Query is one user search. Immutable once submitted.
type Query struct {
	Text       string
	MaxResults int
}

// Payload is the data of a completed job.
type Payload struct {
	Articles []article.Record   `json:"articles"`
	Trend    article.TrendSeries `json:"trend_analysis"`
}

// Response is the body returned by every status check. Data is only set
// for completed jobs; Error is set by failed jobs and rejected requests.
type Response struct {
	Status  Status   `json:"status,omitempty"`
	Data    *Payload `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}
