package api

import (
	"fmt"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/auth"
)

func (s *Server) handleListAuthConfigs(w nethttp.ResponseWriter, r *nethttp.Request) {
	names, err := s.store.ListAuthConfigs()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"configs": names,
		"count":   len(names),
	})
}

func (s *Server) handleSaveAuthConfig(w nethttp.ResponseWriter, r *nethttp.Request) {
	var c auth.Config
	if !decodeJSON(r, &c) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if c.Name == "" {
		writeError(w, nethttp.StatusBadRequest, "name is required")
		return
	}
	// Reject configs that could never produce headers.
	if _, err := c.Headers(); err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveAuthConfig(c); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Auth config %q saved", c.Name),
	})
}

func (s *Server) handleGetAuthConfig(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	c, ok, err := s.store.AuthConfig(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("auth config %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, c)
}

func (s *Server) handleDeleteAuthConfig(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteAuthConfig(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("auth config %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Auth config %q deleted", name),
	})
}
