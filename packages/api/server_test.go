package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	s := NewServer(st, opts...)
	t.Cleanup(s.Close)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, "GET", "/health", nil)

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRequestCRUD(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/requests", map[string]any{
		"name":   "get-user",
		"method": "GET",
		"url":    "https://api.example.com/users/1",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "GET", "/requests", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = doJSON(t, s, "GET", "/requests/get-user", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "get-user", body["name"])

	rec, _ = doJSON(t, s, "DELETE", "/requests/get-user", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body = doJSON(t, s, "GET", "/requests/get-user", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestSaveRequest_MissingFields(t *testing.T) {
	s := newTestServer(t)

	rec, body := doJSON(t, s, "POST", "/requests", map[string]any{"name": "incomplete"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "required")
}

func TestAdHocRequest(t *testing.T) {
	backend := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path": %q}`, r.URL.Path)
	}))
	defer backend.Close()

	s := newTestServer(t)
	rec, body := doJSON(t, s, "POST", "/request", map[string]any{
		"method": "GET",
		"url":    backend.URL + "/users/{{ID}}",
		"variables": map[string]string{
			"ID": "42",
		},
	})

	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, float64(200), body["status_code"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"path": "/users/42"}, body["body"])
}

func TestAdHocRequest_TransportFailure(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, "POST", "/request", map[string]any{
		"method": "GET",
		"url":    "http://127.0.0.1:1/unreachable",
	})

	// Transport failures come back in the payload, not as an HTTP error.
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestExecuteRequest_WithEnvironment(t *testing.T) {
	backend := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"token": %q}`, r.Header.Get("Authorization"))
	}))
	defer backend.Close()

	s := newTestServer(t)

	rec, _ := doJSON(t, s, "PUT", "/environments/dev", map[string]string{
		"TOKEN": "secret",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, "POST", "/requests", map[string]any{
		"name":    "whoami",
		"method":  "GET",
		"url":     backend.URL + "/me",
		"headers": map[string]string{"Authorization": "Bearer {{TOKEN}}"},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "POST", "/requests/whoami/execute", map[string]any{
		"environment": "dev",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"token": "Bearer secret"}, body["body"])
}

func TestExecuteRequest_EnvironmentNotFound(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/requests", map[string]any{
		"name":   "ping",
		"method": "GET",
		"url":    "https://api.example.com/ping",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "POST", "/requests/ping/execute", map[string]any{
		"environment": "staging",
	})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], `environment "staging" not found`)
}

func TestChainExecute(t *testing.T) {
	backend := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			fmt.Fprint(w, `{"token": "abc123"}`)
		case "/profile":
			fmt.Fprintf(w, `{"auth": %q}`, r.Header.Get("Authorization"))
		default:
			nethttp.NotFound(w, r)
		}
	}))
	defer backend.Close()

	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/requests", map[string]any{
		"name":   "login",
		"method": "POST",
		"url":    backend.URL + "/login",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, _ = doJSON(t, s, "POST", "/requests", map[string]any{
		"name":    "profile",
		"method":  "GET",
		"url":     backend.URL + "/profile",
		"headers": map[string]string{"Authorization": "Bearer {{TOKEN}}"},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, _ = doJSON(t, s, "POST", "/chains", map[string]any{
		"name":     "auth-flow",
		"requests": []string{"login", "profile"},
		"rules": []map[string]any{
			{"from_step": 0, "response_path": "token", "variable_name": "TOKEN"},
		},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "POST", "/chains/auth-flow/execute", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	steps := body["steps"].([]any)
	require.Len(t, steps, 2)
	last := steps[1].(map[string]any)
	assert.Equal(t, map[string]any{"auth": "Bearer abc123"}, last["body"])

	variables := body["variables"].(map[string]any)
	assert.Equal(t, "abc123", variables["TOKEN"])
}

func TestSaveChain_UnknownRequest(t *testing.T) {
	s := newTestServer(t)

	rec, body := doJSON(t, s, "POST", "/chains", map[string]any{
		"name":     "broken",
		"requests": []string{"nope"},
	})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "unknown request")
}

func TestChainExecute_DeletedRequestIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/requests", map[string]any{
		"name":   "whoami",
		"method": "GET",
		"url":    "https://api.example.com/whoami",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, _ = doJSON(t, s, "POST", "/chains", map[string]any{
		"name":     "solo",
		"requests": []string{"whoami"},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, _ = doJSON(t, s, "DELETE", "/requests/whoami", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body := doJSON(t, s, "POST", "/chains/solo/execute", nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "unknown request")
}

func TestExportRequests(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/requests", map[string]any{
		"name":   "login",
		"method": "POST",
		"url":    "https://api.example.com/login",
		"body":   `{"user": "ana"}`,
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "GET", "/requests/export", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	login := body["login"].(map[string]any)
	assert.Equal(t, "POST", login["method"])

	rec, body = doJSON(t, s, "GET", "/requests/export?format=postman", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	items := body["item"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "login", item["name"])
	request := item["request"].(map[string]any)
	assert.Equal(t, "https://api.example.com/login", request["url"])

	rec, body = doJSON(t, s, "GET", "/requests/export?format=yaml", nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "unknown export format")
}

func TestTemplates(t *testing.T) {
	s := newTestServer(t)

	rec, body := doJSON(t, s, "GET", "/templates", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	builtin := body["builtin"].([]any)
	assert.Contains(t, builtin, "github_api")
	assert.Contains(t, builtin, "jsonplaceholder")

	rec, body = doJSON(t, s, "GET", "/templates/github_api", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotNil(t, body["template"])

	rec, _ = doJSON(t, s, "GET", "/templates/nonexistent", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestApplyTemplate_SavesRequest(t *testing.T) {
	s := newTestServer(t)

	rec, body := doJSON(t, s, "POST", "/templates/jsonplaceholder/apply", map[string]any{
		"name": "list-posts",
		"path": "/posts",
		"save": true,
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "list-posts", body["name"])
	assert.Equal(t, "https://jsonplaceholder.typicode.com/posts", body["url"])

	rec, _ = doJSON(t, s, "GET", "/requests/list-posts", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestAuthConfigCRUD(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/auth", map[string]any{
		"name":  "prod-token",
		"type":  "bearer",
		"token": "xyz",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "GET", "/auth/prod-token", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "bearer", body["type"])

	rec, _ = doJSON(t, s, "DELETE", "/auth/prod-token", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, "GET", "/auth/prod-token", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestSaveAuthConfig_Invalid(t *testing.T) {
	s := newTestServer(t)

	// apikey without a header name can never apply.
	rec, _ := doJSON(t, s, "POST", "/auth", map[string]any{
		"name": "busted",
		"type": "apikey",
		"key":  "k",
	})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestMockEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/mocks", map[string]any{
		"name":        "get-users",
		"method":      "GET",
		"path":        "/users",
		"status_code": 200,
		"response":    map[string]any{"users": []any{}},
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "GET", "/mocks", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = doJSON(t, s, "GET", "/mocks/server", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, false, body["running"])

	rec, _ = doJSON(t, s, "POST", "/mocks/server/stop", nil)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec, _ = doJSON(t, s, "DELETE", "/mocks/get-users", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, "DELETE", "/mocks/get-users", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestGraphQLExecute(t *testing.T) {
	backend := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data": {"echo": %q}}`, payload["query"])
	}))
	defer backend.Close()

	s := newTestServer(t)
	rec, body := doJSON(t, s, "POST", "/graphql/execute", map[string]any{
		"endpoint": backend.URL,
		"query":    "query { user { id } }",
	})

	require.Equal(t, nethttp.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "query { user { id } }", data["echo"])
}

func TestGraphQLExecute_InvalidQuery(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, "POST", "/graphql/execute", map[string]any{
		"endpoint": "https://api.example.com/graphql",
		"query":    "query { unbalanced {",
	})

	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestSavedQueries(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/graphql/queries", map[string]any{
		"name":     "get-user",
		"endpoint": "https://api.example.com/graphql",
		"query":    "query { user { id } }",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec, body := doJSON(t, s, "GET", "/graphql/queries", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = doJSON(t, s, "DELETE", "/graphql/queries/get-user", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, "DELETE", "/graphql/queries/get-user", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	backend := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer backend.Close()

	s := newTestServer(t)

	rec, _ := doJSON(t, s, "POST", "/request", map[string]any{
		"method": "GET",
		"url":    backend.URL,
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body := doJSON(t, s, "GET", "/history", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["count"])
	entry := body["history"].([]any)[0].(map[string]any)
	assert.Equal(t, "request", entry["kind"])
	assert.Equal(t, float64(200), entry["status_code"])

	rec, _ = doJSON(t, s, "DELETE", "/history", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, body = doJSON(t, s, "GET", "/history", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestMetrics_NotEnabled(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doJSON(t, s, "GET", "/metrics", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)

	rec, _ = doJSON(t, s, "GET", "/metrics/stats", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
}
