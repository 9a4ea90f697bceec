package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAssignsID(t *testing.T) {
	r := newTestRecorder(t)

	id, err := r.Record(context.Background(), Sample{
		RequestName:     "get-user",
		Method:          "GET",
		URL:             "https://api.test/users/1",
		StatusCode:      200,
		DurationSeconds: 0.120,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	samples, err := r.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, id, samples[0].ID)
	assert.Equal(t, "get-user", samples[0].RequestName)
	assert.False(t, samples[0].ExecutedAt.IsZero())
}

func TestListNewestFirst(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		_, err := r.Record(context.Background(), Sample{
			RequestName:     "req",
			Method:          "GET",
			URL:             "https://api.test",
			StatusCode:      200,
			DurationSeconds: 0.1,
			ExecutedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	samples, err := r.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.True(t, samples[0].ExecutedAt.After(samples[1].ExecutedAt))
	assert.True(t, samples[1].ExecutedAt.After(samples[2].ExecutedAt))
}

func TestStats(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	durations := []float64{0.100, 0.200, 0.300, 0.400}
	for i, d := range durations {
		status := 200
		if i == 3 {
			status = 500
		}
		_, err := r.Record(ctx, Sample{
			RequestName:     "api",
			Method:          "GET",
			URL:             "https://api.test",
			StatusCode:      status,
			DurationSeconds: d,
		})
		require.NoError(t, err)
	}

	stats, err := r.Stats(ctx, Filter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(3), stats.SuccessfulRequests)
	assert.Equal(t, int64(1), stats.FailedRequests)
	assert.InDelta(t, 75.0, stats.SuccessRate, 0.01)
	assert.InDelta(t, 0.250, stats.AverageResponseTime, 0.005)
	assert.InDelta(t, 0.100, stats.MinResponseTime, 0.005)
	assert.InDelta(t, 0.400, stats.MaxResponseTime, 0.005)
	assert.LessOrEqual(t, stats.P50ResponseTime, stats.P95ResponseTime)
	assert.LessOrEqual(t, stats.P95ResponseTime, stats.P99ResponseTime)
}

func TestStatsFilterByName(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	for _, name := range []string{"a", "a", "b"} {
		_, err := r.Record(ctx, Sample{RequestName: name, Method: "GET", URL: "https://x", StatusCode: 200, DurationSeconds: 0.1})
		require.NoError(t, err)
	}

	stats, err := r.Stats(ctx, Filter{RequestName: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalRequests)
}

func TestStatsEmpty(t *testing.T) {
	r := newTestRecorder(t)

	stats, err := r.Stats(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Zero(t, stats.SuccessRate)
}

func TestClear(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.Record(ctx, Sample{RequestName: "x", Method: "GET", URL: "https://x", StatusCode: 200, DurationSeconds: 0.1})
	require.NoError(t, err)

	require.NoError(t, r.Clear(ctx))
	samples, err := r.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, samples)
}
