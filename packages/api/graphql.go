package api

import (
	"fmt"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/reqbench/packages/graphql"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

type graphqlRequest struct {
	Endpoint  string            `json:"endpoint"`
	Query     string            `json:"query"`
	Variables map[string]any    `json:"variables,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func (s *Server) handleGraphQLExecute(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req graphqlRequest
	if !decodeJSON(r, &req) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Query == "" {
		writeError(w, nethttp.StatusBadRequest, "endpoint and query are required")
		return
	}
	if err := graphql.ValidateQuery(req.Query); err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}

	result, err := s.gql.Execute(r.Context(), req.Endpoint, req.Query, req.Variables, req.Headers)
	if err != nil {
		writeError(w, nethttp.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, result)
}

func (s *Server) handleGraphQLIntrospect(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req graphqlRequest
	if !decodeJSON(r, &req) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, nethttp.StatusBadRequest, "endpoint is required")
		return
	}

	schema, err := s.gql.Introspect(r.Context(), req.Endpoint, req.Headers)
	if err != nil {
		writeError(w, nethttp.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, schema)
}

func (s *Server) handleListQueries(w nethttp.ResponseWriter, r *nethttp.Request) {
	names, err := s.store.ListQueries()
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"queries": names,
		"count":   len(names),
	})
}

func (s *Server) handleSaveQuery(w nethttp.ResponseWriter, r *nethttp.Request) {
	var q store.SavedQuery
	if !decodeJSON(r, &q) {
		writeError(w, nethttp.StatusBadRequest, "invalid JSON")
		return
	}
	if q.Name == "" || q.Query == "" {
		writeError(w, nethttp.StatusBadRequest, "name and query are required")
		return
	}
	if err := graphql.ValidateQuery(q.Query); err != nil {
		writeError(w, nethttp.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveQuery(q); err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Query %q saved", q.Name),
	})
}

func (s *Server) handleDeleteQuery(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	existed, err := s.store.DeleteQuery(name)
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, nethttp.StatusNotFound, fmt.Sprintf("query %q not found", name))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"message": fmt.Sprintf("Query %q deleted", name),
	})
}
