// Package server is the development backend's HTTP API. It speaks the same
// asynchronous search protocol as the production service: the first request
// for a query enqueues a job, later requests report its status, and a
// completed job returns its cached results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/logging"
	"github.com/abelbrown/pubtrend/internal/store"
)

// Messages sent with 202 responses.
const (
	msgAccepted   = "This is a new query. We've started gathering data. Please check back in a few moments."
	msgInProgress = "We are gathering data for this query. Please check back in a moment."
)

// Validation bounds for max_results.
const (
	minMaxResults = 5
	maxMaxResults = 5000
)

// jobStore is the subset of store.Store the handlers use.
type jobStore interface {
	JobStatus(ctx context.Context, query string) (store.Job, bool, error)
	Enqueue(ctx context.Context, query string, maxResults int) error
	Results(ctx context.Context, query string, limit int) (api.Payload, error)
	Clear(ctx context.Context, query string) error
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP API of the development backend.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	jobs       jobStore
	validate   *validator.Validate
	metrics    *Metrics
	gatherer   prometheus.Gatherer
	logger     *log.Logger
	shutdown   time.Duration
}

// New creates a Server over jobs. Metrics are registered on reg, which also
// backs /metrics.
func New(cfg Config, jobs *store.Store, reg *prometheus.Registry) *Server {
	return newServer(cfg, jobs, reg)
}

func newServer(cfg Config, jobs jobStore, reg *prometheus.Registry) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		jobs:     jobs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  NewMetrics(reg),
		gatherer: reg,
		logger:   logging.WithPrefix("http"),
		shutdown: cfg.ShutdownTimeout,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Metrics returns the server's collectors so the worker can report into them.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the root handler (tests mount it on httptest).
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get(api.SearchPath, s.searchHandler)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchParams are the validated query parameters of /api/search.
type searchParams struct {
	Query      string `validate:"required"`
	MaxResults int    `validate:"min=5,max=5000"`
}

func (s *Server) parseSearch(r *http.Request) (searchParams, error) {
	p := searchParams{
		Query:      strings.TrimSpace(r.URL.Query().Get(api.ParamQuery)),
		MaxResults: api.DefaultMaxResults,
	}
	if raw := r.URL.Query().Get(api.ParamMaxResults); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return p, fmt.Errorf("max_results must be an integer, got %q", raw)
		}
		p.MaxResults = n
	}

	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Query":
				return p, errors.New("Query parameter 'q' is required")
			case "MaxResults":
				return p, fmt.Errorf("max_results must be between %d and %d", minMaxResults, maxMaxResults)
			}
		}
		return p, err
	}
	return p, nil
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.metrics.SearchLatency.Observe(time.Since(start).Seconds()) }()

	p, err := s.parseSearch(r)
	if err != nil {
		s.metrics.SearchRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	job, ok, err := s.jobs.JobStatus(ctx, p.Query)
	if err != nil {
		s.internalError(w, "job status", err)
		return
	}

	switch {
	case ok && job.Status == api.StatusCompleted:
		payload, err := s.jobs.Results(ctx, p.Query, p.MaxResults)
		if err != nil {
			s.internalError(w, "load results", err)
			return
		}
		if payload.Trend == nil {
			payload.Trend = article.TrendSeries{}
		}
		s.metrics.ArticlesServed.Observe(float64(len(payload.Articles)))
		s.respond(w, http.StatusOK, api.Response{Status: api.StatusCompleted, Data: &payload})

	case ok && job.Status.InProgress():
		s.respond(w, http.StatusAccepted, api.Response{Status: job.Status, Message: msgInProgress})

	case ok && job.Status == api.StatusFailed:
		// Report the failure once; the next request re-queues the query.
		if err := s.jobs.Clear(ctx, p.Query); err != nil {
			s.internalError(w, "clear failed job", err)
			return
		}
		s.respond(w, http.StatusOK, api.Response{Status: api.StatusFailed, Error: job.Error})

	default:
		if err := s.jobs.Enqueue(ctx, p.Query, p.MaxResults); err != nil {
			s.internalError(w, "enqueue", err)
			return
		}
		s.logger.Info("job created", "query", p.Query, "max_results", p.MaxResults)
		s.respond(w, http.StatusAccepted, api.Response{Status: api.StatusAccepted, Message: msgAccepted})
	}
}

func (s *Server) respond(w http.ResponseWriter, code int, resp api.Response) {
	s.metrics.SearchRequests.WithLabelValues(string(resp.Status)).Inc()
	writeJSON(w, code, resp)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "err", err)
	s.metrics.SearchRequests.WithLabelValues("error").Inc()
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
