// Package worker runs the development backend's search jobs in the
// background: claim a pending query, gather its articles and trend from
// the catalog, and store the outcome.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/logging"
	"github.com/abelbrown/pubtrend/internal/store"
)

// DefaultInterval is the idle time between queue checks.
const DefaultInterval = 5 * time.Second

// jobTimeout bounds the work done for one query.
const jobTimeout = 2 * time.Minute

// source produces the data for a query (catalog.Catalog in production).
type source interface {
	Search(ctx context.Context, query string, maxResults int) ([]article.Record, error)
	Trend(ctx context.Context, query string, years int) (article.TrendSeries, error)
}

// queue is the subset of store.Store the worker needs.
type queue interface {
	ClaimNext(ctx context.Context) (store.Job, bool, error)
	Complete(ctx context.Context, query string, articles []article.Record, trend article.TrendSeries) error
	Fail(ctx context.Context, query, reason string) error
}

// Worker drains the job queue. Uses context cancellation as the ONLY stop
// mechanism.
type Worker struct {
	queue      queue
	source     source
	interval   time.Duration
	trendYears int

	// OnJob, when set, is called after every finished job.
	OnJob func(job store.Job, status api.Status, took time.Duration)

	wg sync.WaitGroup
}

// New creates a Worker. A non-positive interval uses DefaultInterval.
func New(q *store.Store, src source, interval time.Duration, trendYears int) *Worker {
	return newWorker(q, src, interval, trendYears)
}

func newWorker(q queue, src source, interval time.Duration, trendYears int) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		queue:      q,
		source:     src,
		interval:   interval,
		trendYears: trendYears,
	}
}

// Start begins processing. Call with a cancellable context.
// Drains the queue immediately, then again on every tick.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.drain(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.drain(ctx)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.Start(ctx)
	w.Wait()
	return nil
}

// drain processes jobs until the queue is empty or ctx is cancelled.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		ok, err := w.processNext(ctx)
		if err != nil {
			logging.Error("worker: claim failed", "err", err)
			return
		}
		if !ok {
			return
		}
	}
}

// processNext claims and runs one job. Returns false when nothing was pending.
func (w *Worker) processNext(ctx context.Context) (bool, error) {
	job, ok, err := w.queue.ClaimNext(ctx)
	if err != nil || !ok {
		return false, err
	}

	start := time.Now()
	logging.Info("worker: job started", "query", job.Query, "max_results", job.MaxResults)

	status := api.StatusCompleted
	if err := w.process(ctx, job); err != nil {
		status = api.StatusFailed
		logging.Warn("worker: job failed", "query", job.Query, "err", err)
		// Record the failure even if ctx was cancelled mid-job.
		if ferr := w.queue.Fail(context.WithoutCancel(ctx), job.Query, err.Error()); ferr != nil {
			logging.Error("worker: mark failed", "query", job.Query, "err", ferr)
		}
	} else {
		logging.Info("worker: job completed", "query", job.Query, "took", time.Since(start))
	}

	if w.OnJob != nil {
		w.OnJob(job, status, time.Since(start))
	}
	return true, nil
}

func (w *Worker) process(ctx context.Context, job store.Job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	articles, err := w.source.Search(ctx, job.Query, job.MaxResults)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	trend, err := w.source.Trend(ctx, job.Query, w.trendYears)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	if err := w.queue.Complete(ctx, job.Query, articles, trend); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	return nil
}
