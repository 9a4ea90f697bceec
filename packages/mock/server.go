package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server serves a Registry's endpoints over HTTP. Start, Stop, Running, and
// Addr are safe for concurrent use.
type Server struct {
	registry *Registry
	port     int
	delay    time.Duration

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// Option is a functional option for Server.
type Option func(*Server)

// WithPort sets the listen port. Port 0 picks a free port.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a fixed delay to every response.
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// NewServer creates a server over the given registry.
func NewServer(registry *Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		port:     8001,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("mock server already running on %s", s.listener.Addr())
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)

	s.listener = listener
	s.httpServer = &http.Server{Handler: mux}

	go func(srv *http.Server, l net.Listener) {
		_ = srv.Serve(l)
	}(s.httpServer, listener)

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	endpoint, ok := s.registry.Match(r.Method, r.URL.Path)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": fmt.Sprintf("no mock endpoint for %s %s", r.Method, r.URL.Path),
		})
		return
	}

	status := endpoint.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	switch body := endpoint.Response.(type) {
	case nil:
		_, _ = w.Write([]byte("{}"))
	case string:
		_, _ = w.Write([]byte(body))
	default:
		_ = json.NewEncoder(w).Encode(body)
	}
}
