package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "value", r.Header.Get("X-Custom"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL)
	req.SetHeader("X-Custom", "value")
	req.SetQueryParam("limit", "10")

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsJSON())
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"ok": true}`, resp.BodyString())
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestClient_Do_JSONContentTypeAutoDetected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("POST", server.URL)
	req.SetBody(`{"name": "x"}`)

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestClient_Do_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.True(t, resp.IsServerError())
}

func TestClient_Do_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient()
	_, err := client.Get(context.Background(), url, nil)
	assert.Error(t, err)
}

func TestClient_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient()
	req := NewRequest("GET", server.URL)
	req.SetTimeout(20 * time.Millisecond)

	_, err := client.Do(context.Background(), req)
	assert.Error(t, err)
}

func TestClient_FollowRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("final"))
	}))
	defer target.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirecting.Close()

	t.Run("followed by default", func(t *testing.T) {
		client := NewClient()
		resp, err := client.Get(context.Background(), redirecting.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "final", resp.BodyString())
	})

	t.Run("not followed when disabled", func(t *testing.T) {
		client := NewClient(WithFollowRedirects(false))
		resp, err := client.Get(context.Background(), redirecting.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, 302, resp.StatusCode)
	})
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/path"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("http://"))
	assert.Error(t, ValidateURL("not a url"))
}

func TestResponse_Header_CaseInsensitive(t *testing.T) {
	resp := &Response{Headers: map[string]string{"Content-Type": "text/plain"}}
	assert.Equal(t, "text/plain", resp.Header("content-type"))
	assert.Equal(t, "", resp.Header("x-missing"))
}
