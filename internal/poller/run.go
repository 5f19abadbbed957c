package poller

import (
	"context"
	"time"

	"github.com/abelbrown/pubtrend/internal/api"
)

// Fetcher performs one status check.
type Fetcher interface {
	Status(ctx context.Context, q api.Query) (api.Response, error)
}

// Clock supplies the retry timer.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Runner drives Sessions to completion with blocking calls.
// Used by the non-interactive search command; the TUI drives Sessions
// through tea commands instead.
type Runner struct {
	Fetcher Fetcher
	Clock   Clock

	// OnStep, if set, is called after every step the session produces.
	OnStep func(s *Session, step Step)
}

// Run polls until s terminates and returns its outcome.
// Cancelling ctx cancels the session, including mid-request.
func (r *Runner) Run(ctx context.Context, s *Session) Outcome {
	clock := r.Clock
	if clock == nil {
		clock = RealClock
	}

	step := s.Start()
	r.notify(s, step)

	for step.Kind == StepFetch {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				s.Cancel()
				return s.Outcome()
			case <-clock.After(step.Delay):
			}
		}
		if !s.Fire() {
			break
		}

		resp, err := r.Fetcher.Status(ctx, s.Query)
		if ctx.Err() != nil {
			s.Cancel()
			return s.Outcome()
		}

		step = s.Observe(resp, err)
		r.notify(s, step)
	}

	return s.Outcome()
}

func (r *Runner) notify(s *Session, step Step) {
	if r.OnStep != nil {
		r.OnStep(s, step)
	}
}
