package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/mock"
)

func (s *Server) handleListMocks(w nethttp.ResponseWriter, r *nethttp.Request) {
	endpoints, err := s.store.ListMockEndpoints()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"endpoints": endpoints,
		"count":     len(endpoints),
	})
}

func (s *Server) handleSaveMock(w nethttp.ResponseWriter, r *nethttp.Request) {
	var e mock.Endpoint
	if !decodeJSON(r, &e) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if e.Name == "" || e.Path == "" {
		writeError(w, nethttp.StatusBadRequest, "name and path are required")
		return
	}
	if e.Method == "" {
		e.Method = "GET"
	}
	if err := s.store.SaveMockEndpoint(e); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	// Keep a running mock server in sync without a restart.
	s.mockRegistry.Add(e)
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Mock endpoint %q saved", e.Name),
	})
}

func (s *Server) handleDeleteMock(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteMockEndpoint(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("mock endpoint %q not found", name))
		return
	}
	s.mockRegistry.Remove(name)
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Mock endpoint %q deleted", name),
	})
}

func (s *Server) handleMockServerStatus(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mockMu.Lock()
	srv := s.mockServer
	s.mockMu.Unlock()

	running := srv != nil && srv.Running()
	status := map[string]any{
		"running":   running,
		"endpoints": len(s.mockRegistry.List()),
	}
	if running {
		status["addr"] = srv.Addr()
	}
	writeJSON(w, nethttp.StatusOK, status)
}

// handleMockServerStart holds mockMu across the whole start so two
// overlapping starts cannot both bind a listener.
func (s *Server) handleMockServerStart(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mockMu.Lock()
	defer s.mockMu.Unlock()

	if s.mockServer != nil && s.mockServer.Running() {
		writeError(w, nethttp.StatusConflict, "mock server is already running")
		return
	}

	var body struct {
		Port    int `json:"port,omitempty"`
		DelayMs int `json:"delay_ms,omitempty"`
	}
	if r.ContentLength > 0 && !decodeJSON(r, &body) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}

	endpoints, err := s.store.ListMockEndpoints()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	for _, e := range endpoints {
		s.mockRegistry.Add(e)
	}

	var opts []mock.Option
	if body.Port > 0 {
		opts = append(opts, mock.WithPort(body.Port))
	}
	if body.DelayMs > 0 {
		opts = append(opts, mock.WithDelay(time.Duration(body.DelayMs)*time.Millisecond))
	}
	srv := mock.NewServer(s.mockRegistry, opts...)
	if err := srv.Start(); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	s.mockServer = srv

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"message":   "Mock server started",
		"addr":      srv.Addr(),
		"endpoints": len(s.mockRegistry.List()),
	})
}

func (s *Server) handleMockServerStop(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mockMu.Lock()
	srv := s.mockServer
	s.mockServer = nil
	s.mockMu.Unlock()

	if srv == nil || !srv.Running() {
		writeError(w, nethttp.StatusConflict, "mock server is not running")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": "Mock server stopped",
	})
}
