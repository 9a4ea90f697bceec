// Package output renders responses, chain reports, and statistics for the
// terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/loadtest"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
)

// ConsoleFormatter writes human-oriented output.
type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

// ConsoleOption configures a ConsoleFormatter.
type ConsoleOption func(*ConsoleFormatter)

// NewConsoleFormatter creates a formatter writing to stdout by default.
func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

// WithWriter redirects output, mainly for tests.
func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints response headers and extracted variables.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

// WithNoColor disables ANSI colors.
func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func statusColor(statusCode int) func(a ...interface{}) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return color.New(color.FgGreen).SprintFunc()
	case statusCode >= 400:
		return color.New(color.FgRed).SprintFunc()
	default:
		return color.New(color.FgYellow).SprintFunc()
	}
}

// FormatResponse prints a single response: status line, optional headers,
// then the body (pretty-printed when JSON).
func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	colorize := statusColor(resp.StatusCode)

	fmt.Fprintf(f.writer, "%s %s\n", colorize(strconv.Itoa(resp.StatusCode)), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

	if f.verbose {
		for k, v := range resp.Headers {
			fmt.Fprintf(f.writer, "%s: %s\n", k, v)
		}
	}

	body := resp.BodyString()
	if resp.IsJSON() {
		var v any
		if err := json.Unmarshal(resp.Body, &v); err == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				body = string(pretty)
			}
		}
	}
	if body != "" {
		fmt.Fprintf(f.writer, "%s\n", body)
	}
}

// FormatChainReport prints per-step lines and the overall verdict.
func (f *ConsoleFormatter) FormatChainReport(report *chain.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Chain: "+report.ChainName))

	for _, step := range report.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", step.Index)
		}

		if step.Error != "" {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), name, red("("+step.Error+")"))
			continue
		}

		symbol := green("✓")
		if !step.AssertionsOK {
			symbol = red("✗")
		}
		fmt.Fprintf(f.writer, "  %s %s %s %s\n", symbol, name,
			statusColor(step.StatusCode)(strconv.Itoa(step.StatusCode)),
			cyan(fmt.Sprintf("(%.0fms)", step.DurationSeconds*1000)))

		for _, a := range step.Assertions {
			if !a.Passed {
				fmt.Fprintf(f.writer, "    %s %s\n", red("→"), a.Message)
			}
		}
	}

	if f.verbose && len(report.Variables) > 0 {
		fmt.Fprintf(f.writer, "\n  Variables:\n")
		for k, v := range report.Variables {
			fmt.Fprintf(f.writer, "    %s = %s\n", k, v)
		}
	}

	verdict := green("PASSED")
	if !report.Success {
		verdict = red("FAILED")
	}
	fmt.Fprintf(f.writer, "\n%s in %.2fs\n", verdict, report.TotalTimeSeconds)
}

// FormatStats prints aggregate latency statistics.
func (f *ConsoleFormatter) FormatStats(stats *metrics.Stats) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Statistics"))
	fmt.Fprintf(f.writer, "  Total requests:  %d\n", stats.TotalRequests)
	if stats.TotalRequests == 0 {
		return
	}
	fmt.Fprintf(f.writer, "  Success rate:    %.1f%%\n", stats.SuccessRate)
	fmt.Fprintf(f.writer, "  Average:         %.0fms\n", stats.AverageResponseTime*1000)
	fmt.Fprintf(f.writer, "  Min / Max:       %.0fms / %.0fms\n", stats.MinResponseTime*1000, stats.MaxResponseTime*1000)
	fmt.Fprintf(f.writer, "  p50 / p95 / p99: %.0fms / %.0fms / %.0fms\n",
		stats.P50ResponseTime*1000, stats.P95ResponseTime*1000, stats.P99ResponseTime*1000)
}

// FormatLoadTestResult prints a load test outcome: stats plus errors.
func (f *ConsoleFormatter) FormatLoadTestResult(result *loadtest.Result) {
	red := color.New(color.FgRed).SprintFunc()

	f.FormatStats(&result.Stats)
	fmt.Fprintf(f.writer, "  Elapsed:         %.2fs\n", result.ElapsedSeconds)

	if len(result.Errors) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", red(fmt.Sprintf("%d failed requests:", len(result.Errors))))
		for _, e := range result.Errors {
			fmt.Fprintf(f.writer, "  #%d %s\n", e.RequestNum, e.Error)
		}
	}
}
