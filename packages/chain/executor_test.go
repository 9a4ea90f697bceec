package chain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqbench/packages/assertions"
	rhttp "github.com/abdul-hamid-achik/reqbench/packages/http"
)

// fakeDoer scripts responses (or transport errors) per call.
type fakeDoer struct {
	mu        sync.Mutex
	requests  []*rhttp.Request
	responses []*rhttp.Response
	errs      []error
}

func (f *fakeDoer) Do(_ context.Context, req *rhttp.Request) (*rhttp.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.responses[i], nil
}

func jsonResp(status int, body string) *rhttp.Response {
	return &rhttp.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
		Duration:   5 * time.Millisecond,
	}
}

func step(name, method, url string) Step {
	return Step{Request: RequestDefinition{Name: name, Method: method, URL: url}}
}

func TestExecute_VariableThreading(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{
		jsonResp(200, `{"id": 7}`),
		jsonResp(200, `{"ok": true}`),
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "login-flow",
		[]Step{
			step("create", "POST", "https://api.test/users"),
			step("fetch", "GET", "https://api.test/users/{{USER_ID}}"),
		},
		[]ExtractionRule{{FromStep: 0, Path: "id", Variable: "USER_ID"}},
		nil,
	)

	require.True(t, report.Success)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, "https://api.test/users/7", report.Steps[1].URL)
	assert.Equal(t, "https://api.test/users/7", doer.requests[1].URL)
	assert.Equal(t, "7", report.Variables["USER_ID"])
}

func TestExecute_SubstitutesHeadersBodyAndParams(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{jsonResp(200, `{}`)}}

	body := `{"token": "{{TOKEN}}"}`
	steps := []Step{{Request: RequestDefinition{
		Name:    "authed",
		Method:  "POST",
		URL:     "https://{{HOST}}/items",
		Headers: map[string]string{"Authorization": "Bearer {{TOKEN}}"},
		Body:    &body,
		Params:  map[string]string{"env": "{{ENV}}"},
	}}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "one", steps, nil, map[string]string{
		"HOST":  "api.test",
		"TOKEN": "t0k",
		"ENV":   "staging",
	})

	require.True(t, report.Success)
	sent := doer.requests[0]
	assert.Equal(t, "https://api.test/items", sent.URL)
	assert.Equal(t, "Bearer t0k", sent.Headers["Authorization"])
	assert.Equal(t, `{"token": "t0k"}`, sent.Body)
	assert.Equal(t, "staging", sent.QueryParams["env"])
	assert.Contains(t, report.Steps[0].URL, "env=staging")
}

func TestExecute_UndefinedVariableRendersSentinel(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{jsonResp(200, `{}`)}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c",
		[]Step{step("s", "GET", "https://api.test/{{MISSING}}")}, nil, nil)

	require.Len(t, report.Steps, 1)
	assert.Equal(t, "https://api.test/{{UNDEFINED:MISSING}}", report.Steps[0].URL)
}

func TestExecute_TransportFailureAbortsChain(t *testing.T) {
	doer := &fakeDoer{
		errs:      []error{errors.New("dial tcp: connection refused")},
		responses: []*rhttp.Response{nil, jsonResp(200, `{}`)},
	}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "flaky",
		[]Step{
			step("first", "GET", "https://down.test/a"),
			step("second", "GET", "https://down.test/b"),
		}, nil, nil)

	assert.False(t, report.Success)
	require.Len(t, report.Steps, 1, "remaining steps never execute")
	assert.Equal(t, 0, report.Steps[0].StatusCode)
	assert.Equal(t, 0, report.Steps[0].Index)
	assert.NotEmpty(t, report.Steps[0].Error)
	assert.Len(t, doer.requests, 1)
}

func TestExecute_HTTPErrorStatusContinuesChain(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{
		jsonResp(500, `{"error": "boom"}`),
		jsonResp(200, `{}`),
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "negative-path",
		[]Step{
			step("failing", "GET", "https://api.test/a"),
			step("after", "GET", "https://api.test/b"),
		}, nil, nil)

	assert.True(t, report.Success, "only transport failure aborts")
	require.Len(t, report.Steps, 2)
	assert.Equal(t, 500, report.Steps[0].StatusCode)
	assert.Empty(t, report.Steps[0].Error)
}

func TestExecute_MissingExtractionPathSkipsRule(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{
		jsonResp(200, `{"id": 7}`),
		jsonResp(200, `{}`),
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c",
		[]Step{
			step("a", "GET", "https://api.test/a"),
			step("b", "GET", "https://api.test/b"),
		},
		[]ExtractionRule{{FromStep: 0, Path: "data.nothere", Variable: "X"}},
		nil,
	)

	assert.True(t, report.Success)
	_, bound := report.Variables["X"]
	assert.False(t, bound, "rule with missing path is skipped silently")
}

func TestExecute_StatusPathExtractsStatusCode(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{
		jsonResp(201, `{"id": 7}`),
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c",
		[]Step{step("a", "POST", "https://api.test/a")},
		[]ExtractionRule{{FromStep: 0, Path: "status", Variable: "CODE"}},
		nil,
	)

	assert.True(t, report.Success)
	assert.Equal(t, "201", report.Variables["CODE"])
}

func TestExecute_RuleForLaterStepDoesNotFireEarly(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{
		jsonResp(200, `{"id": 1}`),
		jsonResp(200, `{"id": 2}`),
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c",
		[]Step{
			step("a", "GET", "https://api.test/a"),
			step("b", "GET", "https://api.test/{{ID}}"),
		},
		[]ExtractionRule{{FromStep: 1, Path: "id", Variable: "ID"}},
		nil,
	)

	// The rule sourced from step 1 fires after step 1, too late for step 1's URL.
	assert.Equal(t, "https://api.test/{{UNDEFINED:ID}}", report.Steps[1].URL)
	assert.Equal(t, "2", report.Variables["ID"])
}

func TestExecute_SeedVariablesNotMutated(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{jsonResp(200, `{"id": 9}`)}}

	seed := map[string]string{"HOST": "api.test"}
	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c",
		[]Step{step("a", "GET", "https://{{HOST}}/a")},
		[]ExtractionRule{{FromStep: 0, Path: "id", Variable: "ID"}},
		seed,
	)

	assert.Equal(t, map[string]string{"HOST": "api.test"}, seed)
	assert.Equal(t, "9", report.Variables["ID"])
	assert.Equal(t, "api.test", report.Variables["HOST"])
}

func TestExecute_PerStepAssertions(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{jsonResp(404, `{}`)}}

	steps := []Step{{
		Request:    RequestDefinition{Name: "a", Method: "GET", URL: "https://api.test/a"},
		Assertions: []assertions.Assertion{{Field: "status", Operator: assertions.OpEquals, Expected: 200}},
	}}

	e := NewExecutor(doer)
	report := e.Execute(context.Background(), "c", steps, nil, nil)

	assert.True(t, report.Success, "assertion failures do not abort the chain")
	assert.False(t, report.Steps[0].AssertionsOK)
	assert.False(t, report.AssertionsPassed())
}

func TestExecute_CancelledContextStopsBetweenSteps(t *testing.T) {
	doer := &fakeDoer{responses: []*rhttp.Response{jsonResp(200, `{}`)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(doer)
	report := e.Execute(ctx, "c", []Step{step("a", "GET", "https://api.test/a")}, nil, nil)

	assert.False(t, report.Success)
	assert.Empty(t, report.Steps)
	assert.Empty(t, doer.requests)
}

func TestExecute_EndToEndAgainstServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "secret-token", "user": {"id": 42}}`))
	})
	mux.HandleFunc("/users/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "ana"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExecutor(rhttp.NewClient())
	report := e.Execute(context.Background(), "login-then-fetch",
		[]Step{
			step("login", "POST", server.URL+"/login"),
			{Request: RequestDefinition{
				Name:    "profile",
				Method:  "GET",
				URL:     server.URL + "/users/{{USER_ID}}",
				Headers: map[string]string{"Authorization": "Bearer {{TOKEN}}"},
			}},
		},
		[]ExtractionRule{
			{FromStep: 0, Path: "token", Variable: "TOKEN"},
			{FromStep: 0, Path: "user.id", Variable: "USER_ID"},
		},
		nil,
	)

	require.True(t, report.Success)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, 200, report.Steps[1].StatusCode)
	assert.Greater(t, report.TotalTimeSeconds, float64(0))
}

func TestExecute_IndependentConcurrentRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "` + r.URL.Query().Get("seed") + `"}`))
	}))
	defer server.Close()

	e := NewExecutor(rhttp.NewClient())

	var wg sync.WaitGroup
	reports := make([]*Report, 8)
	for i := range reports {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			seed := map[string]string{"SEED": string(rune('a' + n))}
			reports[n] = e.Execute(context.Background(), "parallel",
				[]Step{{Request: RequestDefinition{
					Method: "GET",
					URL:    server.URL,
					Params: map[string]string{"seed": "{{SEED}}"},
				}}},
				[]ExtractionRule{{FromStep: 0, Path: "id", Variable: "GOT"}},
				seed,
			)
		}(i)
	}
	wg.Wait()

	for i, report := range reports {
		require.True(t, report.Success)
		assert.Equal(t, string(rune('a'+i)), report.Variables["GOT"], "run %d sees only its own variables", i)
	}
}
