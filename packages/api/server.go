// Package api exposes the workbench over a local REST facade.
package api

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/extract"
	"github.com/abdul-hamid-achik/reqbench/packages/graphql"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/mock"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

// Server is the REST surface over the store, executor, and recorders.
type Server struct {
	store    *store.Store
	client   *http.Client
	executor *chain.Executor
	gql      *graphql.Client
	recorder *metrics.Recorder

	mockRegistry *mock.Registry

	mockMu     sync.Mutex
	mockServer *mock.Server

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithClient overrides the HTTP client used for outbound requests.
func WithClient(client *http.Client) Option {
	return func(s *Server) {
		s.client = client
	}
}

// WithRecorder enables metrics recording for executed requests.
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(s *Server) {
		s.recorder = recorder
	}
}

// NewServer creates a server over the given store.
func NewServer(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:        st,
		client:       http.NewClient(),
		mockRegistry: mock.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.executor = chain.NewExecutor(s.client)
	s.gql = graphql.NewClient(s.client)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	s.router = r
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Get("/health", s.handleHealth)

	r.Post("/request", s.handleAdHocRequest)

	r.Route("/requests", func(r chi.Router) {
		r.Get("/", s.handleListRequests)
		r.Post("/", s.handleSaveRequest)
		r.Get("/export", s.handleExportRequests)
		r.Get("/{name}", s.handleGetRequest)
		r.Delete("/{name}", s.handleDeleteRequest)
		r.Post("/{name}/execute", s.handleExecuteRequest)
	})

	r.Route("/chains", func(r chi.Router) {
		r.Get("/", s.handleListChains)
		r.Post("/", s.handleSaveChain)
		r.Get("/{name}", s.handleGetChain)
		r.Delete("/{name}", s.handleDeleteChain)
		r.Post("/{name}/execute", s.handleExecuteChain)
	})

	r.Route("/environments", func(r chi.Router) {
		r.Get("/", s.handleListEnvironments)
		r.Get("/{name}", s.handleGetEnvironment)
		r.Put("/{name}", s.handleSaveEnvironment)
		r.Delete("/{name}", s.handleDeleteEnvironment)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Get("/{key}", s.handleGetTemplate)
		r.Post("/{key}", s.handleSaveTemplate)
		r.Delete("/{key}", s.handleDeleteTemplate)
		r.Post("/{key}/apply", s.handleApplyTemplate)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/", s.handleListAuthConfigs)
		r.Post("/", s.handleSaveAuthConfig)
		r.Get("/{name}", s.handleGetAuthConfig)
		r.Delete("/{name}", s.handleDeleteAuthConfig)
	})

	r.Route("/mocks", func(r chi.Router) {
		r.Get("/", s.handleListMocks)
		r.Post("/", s.handleSaveMock)
		r.Delete("/{name}", s.handleDeleteMock)
		r.Get("/server", s.handleMockServerStatus)
		r.Post("/server/start", s.handleMockServerStart)
		r.Post("/server/stop", s.handleMockServerStop)
	})

	r.Route("/graphql", func(r chi.Router) {
		r.Post("/execute", s.handleGraphQLExecute)
		r.Post("/introspect", s.handleGraphQLIntrospect)
		r.Get("/queries", s.handleListQueries)
		r.Post("/queries", s.handleSaveQuery)
		r.Delete("/queries/{name}", s.handleDeleteQuery)
	})

	r.Route("/metrics", func(r chi.Router) {
		r.Get("/", s.handleListSamples)
		r.Get("/stats", s.handleStats)
	})

	r.Get("/history", s.handleHistory)
	r.Delete("/history", s.handleClearHistory)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer(addr string) *nethttp.Server {
	return &nethttp.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 15 * time.Second,
	}
}

// Close stops the embedded mock server if running.
func (s *Server) Close() {
	s.mockMu.Lock()
	srv := s.mockServer
	s.mockServer = nil
	s.mockMu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}
}

func (s *Server) handleHealth(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]string{
		"status":  "ok",
		"message": "reqbench backend is running",
	})
}

// --- JSON helpers ---

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *nethttp.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// responsePayload is the wire shape of an executed request.
type responsePayload struct {
	StatusCode   int               `json:"status_code"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         any               `json:"body,omitempty"`
	ResponseTime float64           `json:"response_time"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
}

func toPayload(resp *http.Response, err error) responsePayload {
	if err != nil {
		return responsePayload{Success: false, Error: err.Error()}
	}
	body := extract.ParseBody(resp.ContentType(), resp.Body)
	return responsePayload{
		StatusCode:   resp.StatusCode,
		Headers:      resp.Headers,
		Body:         body.Value(),
		ResponseTime: resp.Duration.Seconds(),
		Success:      true,
	}
}
