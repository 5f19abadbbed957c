package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/pubtrend/internal/api"
)

func newTestClient(t *testing.T, ts *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(ts.Client())}, opts...)
	c, err := NewClient(ts.URL, 5*time.Second, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestStatusURLEncodesQuery(t *testing.T) {
	c, err := NewClient("http://localhost:5000/", time.Second)
	require.NoError(t, err)

	raw := c.StatusURL(api.Query{Text: "breast cancer & BRCA1", MaxResults: 50})
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "/api/search", u.Path)
	assert.Equal(t, "breast cancer & BRCA1", u.Query().Get("q"))
	assert.Equal(t, "50", u.Query().Get("max_results"))
}

func TestStatusCompleted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cancer", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("max_results"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"completed","data":{"articles":[{"title":"A","year":"2019","citations":3,"impact_score":10.5}],"trend_analysis":{"2019":5,"2020":3}}}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(t, ts).Status(context.Background(), api.Query{Text: "cancer", MaxResults: 20})
	require.NoError(t, err)

	assert.Equal(t, api.StatusCompleted, resp.Status)
	require.NotNil(t, resp.Data)
	require.Len(t, resp.Data.Articles, 1)
	assert.Equal(t, "A", resp.Data.Articles[0].Title)
	assert.EqualValues(t, 2019, resp.Data.Articles[0].Year)
	assert.Equal(t, 5, resp.Data.Trend["2019"])
}

func TestStatusAcceptedWith202(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"accepted","message":"started"}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(t, ts).Status(context.Background(), api.Query{Text: "x", MaxResults: 20})
	require.NoError(t, err)
	assert.Equal(t, api.StatusAccepted, resp.Status)
	assert.True(t, resp.Status.InProgress())
}

func TestStatusBadRequestCarriesError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"max_results must be between 5 and 5000"}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(t, ts).Status(context.Background(), api.Query{Text: "x", MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, api.Status(""), resp.Status)
	assert.Equal(t, "max_results must be between 5 and 5000", resp.Error)
}

func TestStatusNonJSONErrorPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts).Status(context.Background(), api.Query{Text: "x", MaxResults: 20})
	require.Error(t, err)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadGateway, he.Code)
}

func TestStatusMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts).Status(context.Background(), api.Query{Text: "x", MaxResults: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestStatusConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := ts.URL
	ts.Close()

	c, err := NewClient(base, time.Second)
	require.NoError(t, err)

	_, err = c.Status(context.Background(), api.Query{Text: "x", MaxResults: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch status")
}

func TestStatusCancelledContext(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, ts).Status(ctx, api.Query{Text: "x", MaxResults: 20})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRateLimitSpacesRequests(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"status":"pending"}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts, WithRateLimit(20))
	q := api.Query{Text: "x", MaxResults: 20}

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Status(context.Background(), q)
		require.NoError(t, err)
	}

	// Burst of 1 at 20/s: the 2nd and 3rd calls each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
