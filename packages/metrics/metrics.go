// Package metrics records request executions in SQLite and computes latency
// statistics over them.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id               TEXT PRIMARY KEY,
	request_name     TEXT NOT NULL,
	method           TEXT NOT NULL,
	url              TEXT NOT NULL,
	status_code      INTEGER NOT NULL,
	duration_seconds REAL NOT NULL,
	executed_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_request_name ON samples(request_name);
`

// Sample is one recorded request execution.
type Sample struct {
	ID              string    `json:"id"`
	RequestName     string    `json:"request_name"`
	Method          string    `json:"method"`
	URL             string    `json:"url"`
	StatusCode      int       `json:"status_code"`
	DurationSeconds float64   `json:"duration_seconds"`
	ExecutedAt      time.Time `json:"executed_at"`
}

// Stats aggregates recorded samples. Durations are in seconds; SuccessRate
// is a percentage of 2xx responses over all samples.
type Stats struct {
	TotalRequests       int64   `json:"total_requests"`
	AverageResponseTime float64 `json:"average_response_time"`
	MinResponseTime     float64 `json:"min_response_time"`
	MaxResponseTime     float64 `json:"max_response_time"`
	P50ResponseTime     float64 `json:"p50_response_time"`
	P95ResponseTime     float64 `json:"p95_response_time"`
	P99ResponseTime     float64 `json:"p99_response_time"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	FailedRequests      int64   `json:"failed_requests"`
	SuccessRate         float64 `json:"success_rate"`
}

// Filter narrows which samples contribute to Stats or List.
type Filter struct {
	RequestName string
	Since       time.Time
}

// Recorder persists samples in a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if needed) the metrics database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize metrics schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Record inserts a sample and returns its id. A missing id or timestamp is
// filled in.
func (r *Recorder) Record(ctx context.Context, s Sample) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.ExecutedAt.IsZero() {
		s.ExecutedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO samples (id, request_name, method, url, status_code, duration_seconds, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.RequestName, s.Method, s.URL, s.StatusCode, s.DurationSeconds, s.ExecutedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record sample: %w", err)
	}
	return s.ID, nil
}

// List returns the most recent samples, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, request_name, method, url, status_code, duration_seconds, executed_at
		 FROM samples ORDER BY executed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.ID, &s.RequestName, &s.Method, &s.URL, &s.StatusCode, &s.DurationSeconds, &s.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Stats computes aggregate statistics over the samples matching the filter.
// Returns zero stats when nothing matches.
func (r *Recorder) Stats(ctx context.Context, f Filter) (*Stats, error) {
	query := `SELECT status_code, duration_seconds FROM samples WHERE 1=1`
	var args []any
	if f.RequestName != "" {
		query += ` AND request_name = ?`
		args = append(args, f.RequestName)
	}
	if !f.Since.IsZero() {
		query += ` AND executed_at >= ?`
		args = append(args, f.Since)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	// 1us to 60s range, 3 significant digits
	hist := hdrhistogram.New(1, 60_000_000, 3)
	stats := &Stats{}

	for rows.Next() {
		var statusCode int
		var seconds float64
		if err := rows.Scan(&statusCode, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		stats.TotalRequests++
		if statusCode >= 200 && statusCode < 300 {
			stats.SuccessfulRequests++
		}
		if statusCode >= 400 {
			stats.FailedRequests++
		}

		latencyUs := int64(seconds * 1e6)
		if latencyUs < 1 {
			latencyUs = 1
		}
		if latencyUs > 60_000_000 {
			latencyUs = 60_000_000
		}
		_ = hist.RecordValue(latencyUs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalRequests == 0 {
		return stats, nil
	}

	toSeconds := func(us int64) float64 { return float64(us) / 1e6 }
	stats.AverageResponseTime = hist.Mean() / 1e6
	stats.MinResponseTime = toSeconds(hist.Min())
	stats.MaxResponseTime = toSeconds(hist.Max())
	stats.P50ResponseTime = toSeconds(hist.ValueAtQuantile(50))
	stats.P95ResponseTime = toSeconds(hist.ValueAtQuantile(95))
	stats.P99ResponseTime = toSeconds(hist.ValueAtQuantile(99))
	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests) * 100

	return stats, nil
}

// Clear removes all recorded samples.
func (r *Recorder) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM samples`)
	return err
}
