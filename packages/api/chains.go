package api

import (
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

func (s *Server) handleSaveChain(w nethttp.ResponseWriter, r *nethttp.Request) {
	var c store.Chain
	if !decodeJSON(r, &c) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if c.Name == "" || len(c.Requests) == 0 {
		writeError(w, nethttp.StatusBadRequest, "name and requests are required")
		return
	}

	// Reject references to unsaved requests up front.
	if _, err := s.store.Steps(c); err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SaveChain(c); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Chain %q saved successfully", c.Name),
	})
}

func (s *Server) handleListChains(w nethttp.ResponseWriter, r *nethttp.Request) {
	chains, err := s.store.ListChains()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"chains": chains,
		"count":  len(chains),
	})
}

func (s *Server) handleGetChain(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	c, ok, err := s.store.Chain(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("chain %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, c)
}

func (s *Server) handleDeleteChain(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteChain(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("chain %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Chain %q deleted", name),
	})
}

func (s *Server) handleExecuteChain(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	c, ok, err := s.store.Chain(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("chain %q not found", name))
		return
	}

	var opts executionOptions
	if r.ContentLength > 0 && !decodeJSON(r, &opts) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}

	variables, err := s.resolveVariables(opts)
	if err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}
	// Chain-level seed variables sit under environment and inline ones.
	seed := make(map[string]string, len(c.Variables)+len(variables))
	for k, v := range c.Variables {
		seed[k] = v
	}
	for k, v := range variables {
		seed[k] = v
	}

	// A chain referencing a since-deleted request is a setup error.
	steps, err := s.store.Steps(c)
	if err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}

	report := s.executor.Execute(r.Context(), c.Name, steps, c.Rules, seed)

	_ = s.store.AppendHistory(store.HistoryEntry{
		Kind:            "chain",
		Name:            c.Name,
		DurationSeconds: report.TotalTimeSeconds,
		Success:         report.Success,
		ExecutedAt:      time.Now(),
	})

	writeJSON(w, nethttp.StatusOK, report)
}
