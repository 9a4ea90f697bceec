package api

import (
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/importer"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

// executionOptions selects the variable set a request or chain runs with.
type executionOptions struct {
	Environment string            `json:"environment,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// resolveVariables merges environment variables with inline overrides.
func (s *Server) resolveVariables(opts executionOptions) (map[string]string, error) {
	variables := make(map[string]string)
	if opts.Environment != "" {
		envVars, ok, err := s.store.EnvironmentVariables(opts.Environment)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("environment %q not found", opts.Environment)
		}
		for k, v := range envVars {
			variables[k] = v
		}
	}
	for k, v := range opts.Variables {
		variables[k] = v
	}
	return variables, nil
}

// execute renders and sends a single definition, recording history and
// metrics. A transport failure is reported in the payload, not as an HTTP
// error, matching chain semantics.
func (s *Server) execute(r *nethttp.Request, def chain.RequestDefinition, variables map[string]string) responsePayload {
	req := chain.RenderRequest(def, variables)
	renderedURL := req.BuildURL()

	if err := http.ValidateURL(req.URL); err != nil {
		return responsePayload{Success: false, Error: err.Error()}
	}

	resp, err := s.client.Do(r.Context(), req)
	payload := toPayload(resp, err)

	entry := store.HistoryEntry{
		Kind:       "request",
		Name:       def.Name,
		Method:     def.Method,
		URL:        renderedURL,
		StatusCode: payload.StatusCode,
		Success:    payload.Success,
		ExecutedAt: time.Now(),
	}
	if resp != nil {
		entry.DurationSeconds = resp.Duration.Seconds()
	}
	_ = s.store.AppendHistory(entry)

	if s.recorder != nil && resp != nil {
		_, _ = s.recorder.Record(r.Context(), metrics.Sample{
			RequestName:     def.Name,
			Method:          def.Method,
			URL:             renderedURL,
			StatusCode:      resp.StatusCode,
			DurationSeconds: resp.Duration.Seconds(),
		})
	}

	return payload
}

func (s *Server) handleAdHocRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	var body struct {
		chain.RequestDefinition
		executionOptions
	}
	if !decodeJSON(r, &body) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Method == "" || body.URL == "" {
		writeError(w, nethttp.StatusBadRequest, "method and url are required")
		return
	}

	variables, err := s.resolveVariables(body.executionOptions)
	if err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, nethttp.StatusOK, s.execute(r, body.RequestDefinition, variables))
}

func (s *Server) handleSaveRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	var def chain.RequestDefinition
	if !decodeJSON(r, &def) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if def.Name == "" || def.Method == "" || def.URL == "" {
		writeError(w, nethttp.StatusBadRequest, "name, method and url are required")
		return
	}

	if err := s.store.SaveRequest(def); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Request %q saved successfully", def.Name),
	})
}

func (s *Server) handleListRequests(w nethttp.ResponseWriter, r *nethttp.Request) {
	defs, err := s.store.ListRequests()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"requests": defs,
		"count":    len(defs),
	})
}

// handleExportRequests writes every saved request as plain JSON or,
// with ?format=postman, as a Postman v2.1 collection.
func (s *Server) handleExportRequests(w nethttp.ResponseWriter, r *nethttp.Request) {
	defs, err := s.store.ListRequests()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	var data []byte
	switch format {
	case "", "json":
		data, err = importer.ExportJSON(defs)
	case "postman":
		data, err = importer.ExportPostman("reqbench export", defs)
	default:
		writeError(w, nethttp.StatusBadRequest, fmt.Sprintf("unknown export format %q (expected json or postman)", format))
		return
	}
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	def, ok, err := s.store.Request(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("request %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, def)
}

func (s *Server) handleDeleteRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteRequest(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("request %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Request %q deleted", name),
	})
}

func (s *Server) handleExecuteRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	def, ok, err := s.store.Request(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("request %q not found", name))
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

	writeJSON(w, nethttp.StatusOK, s.execute(r, def, variables))
}
