package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	// Deterministic, strictly increasing timestamps.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	st.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return st
}

func TestOpenCreatesTables(t *testing.T) {
	st := openTestStore(t)

	for _, table := range []string{"query_jobs", "articles_data", "trends_data"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s not created", table)
		assert.Equal(t, table, name)
	}
}

func TestEnqueueAndStatus(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.JobStatus(ctx, "brca1")
	require.NoError(t, err)
	assert.False(t, ok, "unknown query should have no job")

	require.NoError(t, st.Enqueue(ctx, "brca1", 50))

	job, ok, err := st.JobStatus(ctx, "brca1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, api.StatusPending, job.Status)
	assert.Equal(t, 50, job.MaxResults)
	assert.Empty(t, job.Error)
}

func TestClaimNextOldestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "first", 20))
	require.NoError(t, st.Enqueue(ctx, "second", 30))

	job, ok, err := st.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", job.Query)
	assert.Equal(t, api.StatusProcessing, job.Status)

	status, _, err := st.JobStatus(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, api.StatusProcessing, status.Status)

	job, ok, err = st.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", job.Query)
	assert.Equal(t, 30, job.MaxResults)

	_, ok, err = st.ClaimNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "queue should be empty")
}

func TestClaimNextConcurrentClaimsAreExclusive(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	const jobs = 10
	for i := 0; i < jobs; i++ {
		require.NoError(t, st.Enqueue(ctx, string(rune('a'+i)), 20))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed = make(map[string]int)
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, ok, err := st.ClaimNext(ctx)
				if err != nil || !ok {
					return
				}
				mu.Lock()
				claimed[job.Query]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, jobs)
	for q, n := range claimed {
		assert.Equal(t, 1, n, "job %q claimed %d times", q, n)
	}
}

func TestCompleteAndResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "tp53", 20))
	_, _, err := st.ClaimNext(ctx)
	require.NoError(t, err)

	articles := []article.Record{
		{PMID: "1", Title: "First", Year: 2020, Citations: 3, ImpactScore: 12.5},
		{PMID: "2", Title: "Second", Year: 2019},
		{PMID: "3", Title: "Third", Year: 2021},
	}
	trend := article.TrendSeries{"2019": 1, "2020": 1, "2021": 1}
	require.NoError(t, st.Complete(ctx, "tp53", articles, trend))

	job, _, err := st.JobStatus(ctx, "tp53")
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, job.Status)

	payload, err := st.Results(ctx, "tp53", 2)
	require.NoError(t, err)
	require.Len(t, payload.Articles, 2, "results should honor the limit")
	assert.Equal(t, "First", payload.Articles[0].Title)
	assert.Equal(t, "Second", payload.Articles[1].Title)
	assert.Equal(t, 12.5, payload.Articles[0].ImpactScore)
	assert.Equal(t, trend, payload.Trend)
}

func TestCompleteReplacesEarlierResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "q", 20))
	require.NoError(t, st.Complete(ctx, "q", []article.Record{{Title: "old"}, {Title: "older"}}, nil))
	require.NoError(t, st.Complete(ctx, "q", []article.Record{{Title: "new"}}, article.TrendSeries{"2024": 1}))

	payload, err := st.Results(ctx, "q", 100)
	require.NoError(t, err)
	require.Len(t, payload.Articles, 1)
	assert.Equal(t, "new", payload.Articles[0].Title)
}

func TestResultsUnknownQueryIsEmpty(t *testing.T) {
	st := openTestStore(t)

	payload, err := st.Results(context.Background(), "nothing", 20)
	require.NoError(t, err)
	assert.NotNil(t, payload.Articles)
	assert.Empty(t, payload.Articles)
	assert.Empty(t, payload.Trend)
}

func TestFailAndClear(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "bad", 20))
	require.NoError(t, st.Fail(ctx, "bad", "upstream unavailable"))

	job, ok, err := st.JobStatus(ctx, "bad")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, api.StatusFailed, job.Status)
	assert.Equal(t, "upstream unavailable", job.Error)

	require.NoError(t, st.Clear(ctx, "bad"))
	_, ok, err = st.JobStatus(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailUnknownJob(t *testing.T) {
	st := openTestStore(t)
	err := st.Fail(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestEnqueueResetsFailedJob(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "q", 20))
	require.NoError(t, st.Fail(ctx, "q", "boom"))
	require.NoError(t, st.Enqueue(ctx, "q", 40))

	job, _, err := st.JobStatus(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, api.StatusPending, job.Status)
	assert.Equal(t, 40, job.MaxResults)
	assert.Empty(t, job.Error)
}

func TestCountByStatus(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Enqueue(ctx, "a", 20))
	require.NoError(t, st.Enqueue(ctx, "b", 20))
	require.NoError(t, st.Enqueue(ctx, "c", 20))
	_, _, err := st.ClaimNext(ctx)
	require.NoError(t, err)

	counts, err := st.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[api.StatusPending])
	assert.Equal(t, 1, counts[api.StatusProcessing])
}
