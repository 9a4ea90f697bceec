package chain

import (
	"context"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/reqbench/packages/assertions"
	"github.com/abdul-hamid-achik/reqbench/packages/extract"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/vars"
)

// DefaultStepTimeout bounds each HTTP call in a chain. A request still
// pending past this is a transport failure and aborts the chain.
const DefaultStepTimeout = 30 * time.Second

// RequestDefinition is one saved request. Definitions are immutable for the
// duration of an execution; rendering happens on copies.
type RequestDefinition struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    *string           `json:"body,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// ExtractionRule binds a value from one step's response into the variable
// mapping for all subsequent steps. FromStep is a 0-based index into the
// chain's request list; a rule fires exactly once, immediately after that
// step completes, so rules referencing unexecuted steps never fire.
type ExtractionRule struct {
	FromStep int    `json:"from_step"`
	Path     string `json:"response_path"`
	Variable string `json:"variable_name"`
}

// Step pairs a request definition with optional response assertions.
type Step struct {
	Request    RequestDefinition      `json:"request"`
	Assertions []assertions.Assertion `json:"assertions,omitempty"`
}

// StepResult records one executed step. A transport failure yields
// StatusCode 0 and a non-empty Error; an HTTP error status is a normal
// result.
type StepResult struct {
	Index           int                  `json:"index"`
	Name            string               `json:"name,omitempty"`
	StatusCode      int                  `json:"status_code"`
	URL             string               `json:"url"`
	DurationSeconds float64              `json:"duration_seconds"`
	Body            any                  `json:"body,omitempty"`
	Headers         map[string]string    `json:"headers,omitempty"`
	Error           string               `json:"error,omitempty"`
	Assertions      []*assertions.Result `json:"-"`
	AssertionsOK    bool                 `json:"assertions_ok"`
}

// Report is the outcome of one chain execution. Success is false only when
// the chain aborted (transport failure or cancellation); HTTP error statuses
// leave it true so assertions can flag them instead.
type Report struct {
	ChainName        string            `json:"chain_name"`
	TotalTimeSeconds float64           `json:"total_time_seconds"`
	Steps            []StepResult      `json:"steps"`
	Variables        map[string]string `json:"variables"`
	Success          bool              `json:"success"`
}

// AssertionsPassed reports whether every step's assertions held.
func (r *Report) AssertionsPassed() bool {
	for _, s := range r.Steps {
		if !s.AssertionsOK {
			return false
		}
	}
	return true
}

// Doer is the HTTP client collaborator. The concrete client lives in
// packages/http; tests inject fakes.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Executor runs request chains sequentially, threading extracted variables
// from each response into later requests. It holds no per-run state: every
// Execute call works on its own variable mapping, so concurrent executions
// never interfere.
type Executor struct {
	client      Doer
	stepTimeout time.Duration
}

type ExecutorOption func(*Executor)

func WithStepTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.stepTimeout = d
	}
}

func NewExecutor(client Doer, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:      client,
		stepTimeout: DefaultStepTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the chain to completion or abort and always returns a report.
// Steps run strictly in order: each step's substitution depends on variables
// extracted from prior responses. Cancellation is coarse; ctx is only checked
// between steps.
func (e *Executor) Execute(ctx context.Context, chainName string, steps []Step, rules []ExtractionRule, seed map[string]string) *Report {
	report := &Report{
		ChainName: chainName,
		Variables: make(map[string]string, len(seed)),
		Success:   true,
	}
	for k, v := range seed {
		report.Variables[k] = v
	}

	start := time.Now()
	defer func() {
		report.TotalTimeSeconds = time.Since(start).Seconds()
	}()

	for i, step := range steps {
		if ctx.Err() != nil {
			report.Success = false
			return report
		}

		req := RenderRequest(step.Request, report.Variables)
		req.Timeout = e.stepTimeout
		renderedURL := req.BuildURL()

		resp, err := e.client.Do(ctx, req)
		if err != nil {
			report.Steps = append(report.Steps, StepResult{
				Index:        i,
				Name:         step.Request.Name,
				StatusCode:   0,
				URL:          renderedURL,
				Error:        err.Error(),
				AssertionsOK: true,
			})
			report.Success = false
			return report
		}

		body := extract.ParseBody(resp.ContentType(), resp.Body)

		result := StepResult{
			Index:           i,
			Name:            step.Request.Name,
			StatusCode:      resp.StatusCode,
			URL:             renderedURL,
			DurationSeconds: resp.Duration.Seconds(),
			Body:            body.Value(),
			Headers:         resp.Headers,
			AssertionsOK:    true,
		}

		if len(step.Assertions) > 0 {
			result.Assertions = assertions.EvaluateAll(resp, step.Assertions)
			for _, a := range result.Assertions {
				if !a.Passed {
					result.AssertionsOK = false
					break
				}
			}
		}

		report.Steps = append(report.Steps, result)

		for _, rule := range rules {
			if rule.FromStep != i {
				continue
			}
			if rule.Path == "status" {
				report.Variables[rule.Variable] = strconv.Itoa(resp.StatusCode)
				continue
			}
			if value, ok := body.Lookup(rule.Path); ok {
				report.Variables[rule.Variable] = extract.Stringify(value)
			}
		}
	}

	return report
}

// RenderRequest substitutes the current variable mapping into a copy of the
// definition. During chain execution rendering happens fresh per step so
// later steps see every prior extraction.
func RenderRequest(def RequestDefinition, variables map[string]string) *http.Request {
	req := http.NewRequest(def.Method, vars.Substitute(def.URL, variables))

	for k, v := range vars.SubstituteMap(def.Headers, variables) {
		req.SetHeader(k, v)
	}
	for k, v := range vars.SubstituteMap(def.Params, variables) {
		req.SetQueryParam(k, v)
	}
	if body := vars.SubstituteOpt(def.Body, variables); body != nil {
		req.SetBody(*body)
	}

	return req
}
