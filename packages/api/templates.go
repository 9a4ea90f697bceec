package api

import (
	"fmt"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/template"
)

// lookupTemplate resolves a key against built-ins first, then the store.
func (s *Server) lookupTemplate(key string) (template.Template, bool, error) {
	if t, ok := template.Get(key); ok {
		return t, true, nil
	}
	return s.store.Template(key)
}

func (s *Server) handleListTemplates(w nethttp.ResponseWriter, r *nethttp.Request) {
	custom, err := s.store.ListTemplates()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"builtin": template.BuiltInKeys(),
		"custom":  custom,
	})
}

func (s *Server) handleGetTemplate(w nethttp.ResponseWriter, r *nethttp.Request) {
	key := chi.URLParam(r, "key")
	t, ok, err := s.lookupTemplate(key)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("template %q not found", key))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"template":  t,
		"variables": t.Variables(),
	})
}

func (s *Server) handleSaveTemplate(w nethttp.ResponseWriter, r *nethttp.Request) {
	key := chi.URLParam(r, "key")

	var t template.Template
	if !decodeJSON(r, &t) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if t.BaseURL == "" || t.Method == "" {
		writeError(w, nethttp.StatusBadRequest, "base_url and method are required")
		return
	}

	if err := s.store.SaveTemplate(key, t); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Template %q saved", key),
	})
}

func (s *Server) handleDeleteTemplate(w nethttp.ResponseWriter, r *nethttp.Request) {
	key := chi.URLParam(r, "key")
	existed, err := s.store.DeleteTemplate(key)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("template %q not found", key))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Template %q deleted", key),
	})
}

func (s *Server) handleApplyTemplate(w nethttp.ResponseWriter, r *nethttp.Request) {
	key := chi.URLParam(r, "key")
	t, ok, err := s.lookupTemplate(key)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("template %q not found", key))
		return
	}

	var body struct {
		Name    string            `json:"name"`
		Method  string            `json:"method,omitempty"`
		Path    string            `json:"path,omitempty"`
		Headers map[string]string `json:"headers,omitempty"`
		Body    *string           `json:"body,omitempty"`
		Params  map[string]string `json:"params,omitempty"`
		Save    bool              `json:"save,omitempty"`
	}
	if r.ContentLength > 0 && !decodeJSON(r, &body) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}

	def := t.Apply(template.Overrides{
		Name:    body.Name,
		Method:  body.Method,
		Path:    body.Path,
		Headers: body.Headers,
		Body:    body.Body,
		Params:  body.Params,
	})

	if body.Save {
		if err := s.store.SaveRequest(def); err != nil {
			writeError(w, nethttp.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, nethttp.StatusOK, def)
}
