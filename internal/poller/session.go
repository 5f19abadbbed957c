// Package poller implements the search status polling state machine.
//
// A Session covers one submitted query. It never touches the network or a
// timer itself: Start and Observe return the next Step and the driver
// (Run, or the TUI's tick commands) performs it. That keeps the fixed
// interval and attempt bound testable without waiting on a wall clock.
//
// A Session moves Idle -> AwaitingResponse, then between AwaitingResponse
// and Waiting for each in-progress status, and ends in exactly one of
// Completed, Failed, TimedOut or Cancelled. Controls are disabled on Start
// and re-enabled exactly once on the terminal transition.
package poller

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
)

// Interval is the fixed delay between status checks.
const Interval = 5 * time.Second

// MaxAttempts bounds the in-progress responses tolerated before timing out.
// The first check is attempt 0, so a job that never finishes gets
// MaxAttempts+1 checks (about two minutes).
const MaxAttempts = 24

// State is the lifecycle position of a Session.
type State int

const (
	Idle State = iota
	AwaitingResponse
	Waiting
	Completed
	Failed
	TimedOut
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting-response"
	case Waiting:
		return "waiting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed-out"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further steps follow.
func (s State) Terminal() bool {
	return s >= Completed
}

// Controls are the UI affordances a running search locks.
type Controls interface {
	Disable()
	Enable()
}

// Outcome is the single terminal result of a Session.
// Err is nil on success.
type Outcome struct {
	Articles []article.Record
	Trend    article.TrendSeries
	Err      error
}

// OK reports whether the search completed successfully.
func (o Outcome) OK() bool { return o.Err == nil }

// TimedOut reports whether the attempt bound was exceeded.
func (o Outcome) TimedOut() bool { return errors.Is(o.Err, ErrTimeout) }

// StepKind says what the driver must do next.
type StepKind int

const (
	// StepNone: the session is already terminal; the input was ignored.
	StepNone StepKind = iota
	// StepFetch: wait Delay, call Fire, then fetch status.
	StepFetch
	// StepDone: the session terminated with Outcome.
	StepDone
)

// Step is an instruction for the driver.
type Step struct {
	Kind    StepKind
	Delay   time.Duration
	Attempt int
	Outcome Outcome
}

// Session is one submitted query's polling sequence.
// Not safe for concurrent use; drive it from a single goroutine.
type Session struct {
	ID    string
	Query api.Query

	controls Controls
	state    State
	attempt  int
	retries  int
	outcome  Outcome
}

// NewSession validates q and returns an idle Session.
// Blank query text yields ErrEmptyQuery. Text is trimmed; MaxResults is
// forwarded as given and range-checked by the backend.
func NewSession(q api.Query, controls Controls) (*Session, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	return &Session{
		ID:       uuid.NewString(),
		Query:    q,
		controls: controls,
	}, nil
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Attempt returns the index of the current (or last) status check.
func (s *Session) Attempt() int { return s.attempt }

// Retries returns how many delayed re-checks have been scheduled.
func (s *Session) Retries() int { return s.retries }

// Outcome returns the terminal outcome. Only meaningful once State().Terminal().
func (s *Session) Outcome() Outcome { return s.outcome }

// Start disables the controls and asks for the first status check,
// which is issued without delay.
func (s *Session) Start() Step {
	if s.state != Idle {
		return Step{Kind: StepNone}
	}
	if s.controls != nil {
		s.controls.Disable()
	}
	s.state = AwaitingResponse
	return Step{Kind: StepFetch, Attempt: 0}
}

// Fire marks the retry delay as elapsed. It returns false when the session
// terminated while waiting, in which case the fetch must not be issued.
func (s *Session) Fire() bool {
	switch s.state {
	case AwaitingResponse:
		return true
	case Waiting:
		s.state = AwaitingResponse
		return true
	default:
		return false
	}
}

// Observe consumes the result of one status check.
func (s *Session) Observe(resp api.Response, err error) Step {
	if s.state != AwaitingResponse {
		return Step{Kind: StepNone}
	}

	if err != nil {
		return s.finish(Failed, Outcome{Err: &TransportError{Err: err}})
	}

	switch {
	case resp.Status == api.StatusCompleted:
		out := Outcome{}
		if resp.Data != nil {
			out.Articles = resp.Data.Articles
			out.Trend = resp.Data.Trend
		}
		return s.finish(Completed, out)

	case resp.Status.InProgress():
		s.attempt++
		if s.attempt > MaxAttempts {
			return s.finish(TimedOut, Outcome{Err: ErrTimeout})
		}
		s.retries++
		s.state = Waiting
		return Step{Kind: StepFetch, Delay: Interval, Attempt: s.attempt}

	default:
		return s.finish(Failed, Outcome{Err: &BackendError{Status: resp.Status, Message: resp.Error}})
	}
}

// Cancel terminates a live session with ErrCancelled.
// It returns false if the session had already terminated.
func (s *Session) Cancel() bool {
	if s.state.Terminal() {
		return false
	}
	s.finish(Cancelled, Outcome{Err: ErrCancelled})
	return true
}

func (s *Session) finish(state State, out Outcome) Step {
	wasStarted := s.state != Idle
	s.state = state
	s.outcome = out
	if wasStarted && s.controls != nil {
		s.controls.Enable()
	}
	return Step{Kind: StepDone, Attempt: s.attempt, Outcome: out}
}
