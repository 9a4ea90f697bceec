// Package loadtest fires a fixed number of requests at one definition and
// aggregates latency statistics.
package loadtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
)

// Config controls a load test run.
type Config struct {
	Requests    int     // total requests to send
	Concurrency int     // parallel workers, default 1
	Rate        float64 // requests per second across all workers, 0 = unpaced
}

// RequestError is one failed request attempt.
type RequestError struct {
	RequestNum int    `json:"request_num"`
	Error      string `json:"error"`
}

// Result is the outcome of a run: the same stats shape the metrics package
// produces, plus transport errors.
type Result struct {
	Stats          metrics.Stats  `json:"stats"`
	Errors         []RequestError `json:"errors,omitempty"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
}

// Runner executes load tests over an injected transport.
type Runner struct {
	doer chain.Doer
}

// NewRunner creates a runner over the given transport.
func NewRunner(doer chain.Doer) *Runner {
	return &Runner{doer: doer}
}

// Run sends cfg.Requests copies of the definition, substituting variables
// once up front. Cancelling ctx stops scheduling new requests.
func (r *Runner) Run(ctx context.Context, def chain.RequestDefinition, variables map[string]string, cfg Config) (*Result, error) {
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("request count must be positive")
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	// 1us to 60s range, 3 significant digits
	hist := hdrhistogram.New(1, 60_000_000, 3)
	result := &Result{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	start := time.Now()

	for i := 0; i < cfg.Requests; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			defer func() { <-sem }()

			req := chain.RenderRequest(def, variables)
			resp, err := r.doer.Do(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, RequestError{RequestNum: num, Error: err.Error()})
				return
			}

			result.Stats.TotalRequests++
			if resp.IsSuccess() {
				result.Stats.SuccessfulRequests++
			}
			if resp.StatusCode >= 400 {
				result.Stats.FailedRequests++
			}

			latencyUs := resp.Duration.Microseconds()
			if latencyUs < 1 {
				latencyUs = 1
			}
			if latencyUs > 60_000_000 {
				latencyUs = 60_000_000
			}
			_ = hist.RecordValue(latencyUs)
		}(i + 1)
	}

	wg.Wait()
	result.ElapsedSeconds = time.Since(start).Seconds()

	if result.Stats.TotalRequests > 0 {
		toSeconds := func(us int64) float64 { return float64(us) / 1e6 }
		result.Stats.AverageResponseTime = hist.Mean() / 1e6
		result.Stats.MinResponseTime = toSeconds(hist.Min())
		result.Stats.MaxResponseTime = toSeconds(hist.Max())
		result.Stats.P50ResponseTime = toSeconds(hist.ValueAtQuantile(50))
		result.Stats.P95ResponseTime = toSeconds(hist.ValueAtQuantile(95))
		result.Stats.P99ResponseTime = toSeconds(hist.ValueAtQuantile(99))
		result.Stats.SuccessRate = float64(result.Stats.SuccessfulRequests) / float64(result.Stats.TotalRequests) * 100
	}

	return result, nil
}
