package graphql

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqbench/packages/http"
)

func TestExecute(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotPayload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"user": {"id": "1"}}}`))
	}))
	defer server.Close()

	c := NewClient(http.NewClient())
	result, err := c.Execute(context.Background(), server.URL,
		`query { user(id: $id) { id } }`,
		map[string]any{"id": "1"},
		map[string]string{"Authorization": "Bearer tok"},
	)
	require.NoError(t, err)

	assert.Equal(t, `query { user(id: $id) { id } }`, gotPayload["query"])
	assert.Equal(t, map[string]any{"id": "1"}, gotPayload["variables"])

	data, ok := result["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "user")
}

func TestExecuteInvalidResponse(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewClient(http.NewClient())
	_, err := c.Execute(context.Background(), server.URL, "query { x }", nil, nil)
	assert.Error(t, err)
}

func TestIntrospectCachesPerEndpoint(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"__schema": {"queryType": {"name": "Query"}}}}`))
	}))
	defer server.Close()

	c := NewClient(http.NewClient())

	first, err := c.Introspect(context.Background(), server.URL, nil)
	require.NoError(t, err)
	second, err := c.Introspect(context.Background(), server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	c.InvalidateSchema(server.URL)
	_, err = c.Introspect(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSchemaCacheIsPerClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	a := NewClient(http.NewClient())
	b := NewClient(http.NewClient())

	_, err := a.Introspect(context.Background(), server.URL, nil)
	require.NoError(t, err)
	_, err = b.Introspect(context.Background(), server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{"valid query", "query { user { id } }", ""},
		{"valid mutation", "mutation { createUser { id } }", ""},
		{"unbalanced", "query { user { id }", "unbalanced braces"},
		{"no keyword", "{ }", "must include"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "query {\n  id\n  name\n}", BuildQuery("query", []string{"id", "name"}))
	assert.Equal(t, "mutation {\n  createUser\n}", BuildQuery("Mutation", []string{"createUser"}))
}

func TestFormatQuery(t *testing.T) {
	in := "query {\nuser {\nid\nname\n}\n}"
	want := "query {\n  user {\n    id\n    name\n  }\n}"
	assert.Equal(t, want, FormatQuery(in))
}
