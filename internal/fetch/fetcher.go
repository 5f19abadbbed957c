// Package fetch performs status checks against the asynchronous search backend.
//
// A status check is a single GET of /api/search. The backend answers with the
// job status and, once the job has completed, the result payload. Fetch never
// interprets the status: that is the poller's job.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/pubtrend/internal/api"
)

// maxBodyBytes caps how much of a response body is read.
// A 5000-article payload with abstracts stays well under this.
const maxBodyBytes = 64 << 20

// userAgent is sent with every status check.
const userAgent = "pubtrend/0.1 (+https://github.com/abelbrown/pubtrend)"

// Client checks search job status over HTTP.
// Safe for concurrent use.
type Client struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit caps status checks at perSecond requests per second.
// Zero or negative disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a Client for the backend at baseURL with the given
// HTTP timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:    u,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StatusURL builds the request target for q: the query text is URL-encoded
// and max_results is always present.
func (c *Client) StatusURL(q api.Query) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + api.SearchPath
	params := url.Values{}
	params.Set(api.ParamQuery, q.Text)
	params.Set(api.ParamMaxResults, strconv.Itoa(q.MaxResults))
	u.RawQuery = params.Encode()
	return u.String()
}

// Status performs one status check for q.
//
// The body is decoded whatever the HTTP status: the backend answers 202 for
// jobs in progress and 400 with {"error": ...} for rejected queries, and both
// carry information the caller needs. A non-JSON body is an error.
//
// The function respects context cancellation and will return early
// if the context is cancelled.
func (c *Client) Status(ctx context.Context, q api.Query) (api.Response, error) {
	if ctx.Err() != nil {
		return api.Response{}, ctx.Err()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return api.Response{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StatusURL(q), nil)
	if err != nil {
		return api.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return api.Response{}, fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return api.Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var out api.Response
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return api.Response{}, &HTTPError{Code: resp.StatusCode, Status: resp.Status}
		}
		return api.Response{}, fmt.Errorf("failed to parse response: %w", err)
	}

	// An error status with neither a job status nor an error message is
	// still a transport failure, not something to keep polling on.
	if resp.StatusCode >= http.StatusBadRequest && out.Status == "" && out.Error == "" {
		return api.Response{}, &HTTPError{Code: resp.StatusCode, Status: resp.Status}
	}

	return out, nil
}

// HTTPError is returned when the backend answers with an error code and a
// body that carries no usable status.
type HTTPError struct {
	Code   int
	Status string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}
