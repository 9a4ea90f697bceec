// Package http wraps net/http with a client tuned for interactive API
// testing: bounded timeouts, query parameter handling, default headers, and
// a response type carrying the measured request duration.
package http
