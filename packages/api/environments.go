package api

import (
	"fmt"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSaveEnvironment(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")

	var variables map[string]string
	if !decodeJSON(r, &variables) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.store.SaveEnvironment(name, variables); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Environment %q saved", name),
	})
}

func (s *Server) handleListEnvironments(w nethttp.ResponseWriter, r *nethttp.Request) {
	names, err := s.store.ListEnvironments()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"environments": names,
		"count":        len(names),
	})
}

func (s *Server) handleGetEnvironment(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	variables, ok, err := s.store.EnvironmentVariables(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("environment %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, variables)
}

func (s *Server) handleDeleteEnvironment(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteEnvironment(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("environment %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Environment %q deleted", name),
	})
}
