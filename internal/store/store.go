// Package store provides SQLite persistence for the development backend:
// the search job queue and the cached results of completed jobs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Job is one row of the queue. Query text is the key: one job per query.
type Job struct {
	Query      string
	Status     api.Status
	MaxResults int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_jobs (
		query TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		max_results INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON query_jobs(status, created_at);

	CREATE TABLE IF NOT EXISTS articles_data (
		query TEXT NOT NULL,
		position INTEGER NOT NULL,
		pmid TEXT,
		data TEXT NOT NULL,
		PRIMARY KEY (query, position)
	);

	CREATE TABLE IF NOT EXISTS trends_data (
		query TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Enqueue records query as pending, replacing any earlier job for it.
func (s *Store) Enqueue(ctx context.Context, query string, maxResults int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO query_jobs (query, status, max_results, error, created_at, updated_at)
		VALUES (?, ?, ?, '', ?, ?)
	`, query, string(api.StatusPending), maxResults, now, now)
	if err != nil {
		return fmt.Errorf("enqueue %q: %w", query, err)
	}
	return nil
}

// JobStatus returns the job for query. ok is false when none exists.
func (s *Store) JobStatus(ctx context.Context, query string) (job Job, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT query, status, max_results, error, created_at, updated_at
		FROM query_jobs WHERE query = ?
	`, query)
	job, err = scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("job status %q: %w", query, err)
	}
	return job, true, nil
}

// ClaimNext moves the oldest pending job to processing and returns it.
// ok is false when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (job Job, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Job{}, false, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT query, status, max_results, error, created_at, updated_at
		FROM query_jobs WHERE status = ?
		ORDER BY created_at, rowid LIMIT 1
	`, string(api.StatusPending))
	job, err = scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("select pending: %w", err)
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE query_jobs SET status = ?, updated_at = ? WHERE query = ?
	`, string(api.StatusProcessing), now.UnixNano(), job.Query); err != nil {
		return Job{}, false, fmt.Errorf("mark processing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Job{}, false, fmt.Errorf("commit claim: %w", err)
	}

	job.Status = api.StatusProcessing
	job.UpdatedAt = now
	return job, true, nil
}

// Complete stores the results of query in order and marks the job completed.
func (s *Store) Complete(ctx context.Context, query string, articles []article.Record, trend article.TrendSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles_data WHERE query = ?`, query); err != nil {
		return fmt.Errorf("clear articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles_data (query, position, pmid, data) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range articles {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode article %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, query, i, a.PMID, string(data)); err != nil {
			return fmt.Errorf("insert article %d: %w", i, err)
		}
	}

	if trend == nil {
		trend = article.TrendSeries{}
	}
	trendData, err := json.Marshal(trend)
	if err != nil {
		return fmt.Errorf("encode trend: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO trends_data (query, data) VALUES (?, ?)
	`, query, string(trendData)); err != nil {
		return fmt.Errorf("insert trend: %w", err)
	}

	if err := setStatus(ctx, tx, query, api.StatusCompleted, "", s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// Fail marks the job for query as failed with reason.
func (s *Store) Fail(ctx context.Context, query, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setStatus(ctx, s.db, query, api.StatusFailed, reason, s.now())
}

// Clear removes the job and any cached results for query.
func (s *Store) Clear(ctx context.Context, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"query_jobs", "articles_data", "trends_data"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE query = ?", query); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Results returns at most limit cached articles for query, in the order
// they were stored, and the cached trend. A missing trend is empty.
func (s *Store) Results(ctx context.Context, query string, limit int) (api.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM articles_data WHERE query = ? ORDER BY position LIMIT ?
	`, query, limit)
	if err != nil {
		return api.Payload{}, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := []article.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return api.Payload{}, err
		}
		var a article.Record
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return api.Payload{}, fmt.Errorf("decode article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return api.Payload{}, err
	}

	trend := article.TrendSeries{}
	var trendData string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM trends_data WHERE query = ?`, query).Scan(&trendData)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return api.Payload{}, fmt.Errorf("query trend: %w", err)
	default:
		if err := json.Unmarshal([]byte(trendData), &trend); err != nil {
			return api.Payload{}, fmt.Errorf("decode trend: %w", err)
		}
	}

	return api.Payload{Articles: articles, Trend: trend}, nil
}

// CountByStatus returns the number of jobs in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[api.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM query_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[api.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[api.Status(status)] = n
	}
	return counts, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setStatus(ctx context.Context, db execer, query string, status api.Status, reason string, now time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE query_jobs SET status = ?, error = ?, updated_at = ? WHERE query = ?
	`, string(status), reason, now.UnixNano(), query)
	if err != nil {
		return fmt.Errorf("set %s for %q: %w", status, query, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set %s for %q: %w", status, query, ErrNoJob)
	}
	return nil
}

// ErrNoJob is returned when a status change targets a query with no job.
var ErrNoJob = errors.New("no such job")

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var (
		job              Job
		status           string
		created, updated int64
	)
	if err := row.Scan(&job.Query, &status, &job.MaxResults, &job.Error, &created, &updated); err != nil {
		return Job{}, err
	}
	job.Status = api.Status(status)
	job.CreatedAt = time.Unix(0, created)
	job.UpdatedAt = time.Unix(0, updated)
	return job, nil
}
