// Package mock serves canned responses for registered endpoints so chains can
// be exercised without the real upstream API.
package mock

import (
	"strings"
	"sync"
)

// Endpoint is a single registered mock route.
type Endpoint struct {
	Name       string `json:"name"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	Response   any    `json:"response"`
}

// Registry holds the endpoints a Server dispatches on. Each Server owns its
// own Registry; there is no shared process-wide route table.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers an endpoint. A same-named endpoint is replaced.
func (r *Registry) Add(e Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.endpoints {
		if existing.Name == e.Name {
			r.endpoints[i] = e
			return
		}
	}
	r.endpoints = append(r.endpoints, e)
}

// Remove deletes an endpoint by name and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.endpoints {
		if e.Name == name {
			r.endpoints = append(r.endpoints[:i], r.endpoints[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of all registered endpoints.
func (r *Registry) List() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Match finds the first endpoint for the method and path.
func (r *Registry) Match(method, path string) (Endpoint, bool) {
	path = normalizePath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.endpoints {
		if strings.EqualFold(e.Method, method) && normalizePath(e.Path) == path {
			return e, true
		}
	}
	return Endpoint{}, false
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
