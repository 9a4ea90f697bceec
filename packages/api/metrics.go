package api

import (
	nethttp "net/http"
	"strconv"

	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
)

func (s *Server) handleListSamples(w nethttp.ResponseWriter, r *nethttp.Request) {
	if s.recorder == nil {
		writeError(w, nethttp.StatusServiceUnavailable, "metrics recording is not enabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, nethttp.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	samples, err := s.recorder.List(r.Context(), limit)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"samples": samples,
		"count":   len(samples),
	})
}

func (s *Server) handleStats(w nethttp.ResponseWriter, r *nethttp.Request) {
	if s.recorder == nil {
		writeError(w, nethttp.StatusServiceUnavailable, "metrics recording is not enabled")
		return
	}
	stats, err := s.recorder.Stats(r.Context(), metrics.Filter{
		RequestName: r.URL.Query().Get("request_name"),
	})
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, stats)
}

func (s *Server) handleHistory(w nethttp.ResponseWriter, r *nethttp.Request) {
	entries, err := s.store.History()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"history": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleClearHistory(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := s.store.ClearHistory(); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": "History cleared",
	})
}
