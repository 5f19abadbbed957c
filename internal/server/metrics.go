package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/store"
)

// Metrics holds the development backend's Prometheus collectors.
type Metrics struct {
	// SearchRequests counts /api/search responses by reported status
	// ("accepted", "pending", "completed", "invalid", ...).
	SearchRequests *prometheus.CounterVec

	// SearchLatency observes /api/search handling time in seconds.
	SearchLatency prometheus.Histogram

	// JobsFinished counts worker jobs by final status.
	JobsFinished *prometheus.CounterVec

	// JobDuration observes worker job time in seconds.
	JobDuration prometheus.Histogram

	// ArticlesServed observes the number of articles in completed responses.
	ArticlesServed prometheus.Histogram
}

// NewMetrics registers the collectors on reg under the pubtrend namespace.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubtrend",
			Name:      "search_requests_total",
			Help:      "Search status requests by reported status.",
		}, []string{"status"}),
		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pubtrend",
			Name:      "search_request_duration_seconds",
			Help:      "Time to answer a search status request.",
			Buckets:   prometheus.DefBuckets,
		}),
		JobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubtrend",
			Name:      "jobs_finished_total",
			Help:      "Search jobs finished by the worker, by final status.",
		}, []string{"status"}),
		JobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pubtrend",
			Name:      "job_duration_seconds",
			Help:      "Time spent processing one search job.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		ArticlesServed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pubtrend",
			Name:      "articles_served",
			Help:      "Articles returned per completed search response.",
			Buckets:   []float64{0, 5, 10, 20, 50, 100, 500, 1000, 5000},
		}),
	}
}

// ObserveJob records a finished worker job. Matches worker.Worker.OnJob.
func (m *Metrics) ObserveJob(_ store.Job, status api.Status, took time.Duration) {
	m.JobsFinished.WithLabelValues(string(status)).Inc()
	m.JobDuration.Observe(took.Seconds())
}
