// Package chain executes ordered sequences of HTTP requests, threading
// values extracted from each response into the variable mapping used to
// render subsequent requests.
//
// A transport failure (timeout, connection refusal, DNS error) aborts the
// remainder of the chain. An HTTP error status does not: chains are allowed
// to exercise an API's negative paths, and assertions flag unexpected
// statuses.
package chain
