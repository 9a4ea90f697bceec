// Package assertions evaluates declarative (field, operator, expected)
// checks against HTTP responses. Fields address the JSON body by dotted path,
// with "status" and "response_time" reserved for the response envelope.
package assertions
