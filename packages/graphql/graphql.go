// Package graphql executes GraphQL queries and introspects schemas over the
// workbench HTTP client.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/reqbench/packages/http"
)

// Doer sends a prepared request and returns the response.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client executes queries against GraphQL endpoints. Each client owns its
// own schema cache; nothing is shared at package level.
type Client struct {
	doer Doer

	mu      sync.Mutex
	schemas map[string]map[string]any
}

// NewClient creates a client over the given transport.
func NewClient(doer Doer) *Client {
	return &Client{
		doer:    doer,
		schemas: make(map[string]map[string]any),
	}
}

const introspectionQuery = `query IntrospectionQuery {
  __schema {
    types {
      kind
      name
      description
      fields {
        name
        type { kind name }
      }
    }
    queryType { name }
    mutationType { name }
  }
}`

// Execute posts a query with variables to the endpoint and returns the
// decoded JSON response.
func (c *Client) Execute(ctx context.Context, endpoint, query string, variables map[string]any, headers map[string]string) (map[string]any, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req := http.NewRequest("POST", endpoint)
	req.SetHeader("Content-Type", "application/json")
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	req.SetBody(string(payload))

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("invalid graphql response: %w", err)
	}
	return result, nil
}

// Introspect fetches the endpoint's schema, serving repeat calls from the
// client's cache.
func (c *Client) Introspect(ctx context.Context, endpoint string, headers map[string]string) (map[string]any, error) {
	c.mu.Lock()
	cached, ok := c.schemas[endpoint]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	result, err := c.Execute(ctx, endpoint, introspectionQuery, nil, headers)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.schemas[endpoint] = result
	c.mu.Unlock()
	return result, nil
}

// InvalidateSchema drops the cached schema for an endpoint.
func (c *Client) InvalidateSchema(endpoint string) {
	c.mu.Lock()
	delete(c.schemas, endpoint)
	c.mu.Unlock()
}

// BuildQuery assembles a query or mutation from a flat field list.
func BuildQuery(queryType string, fields []string) string {
	keyword := "query"
	if strings.EqualFold(queryType, "mutation") {
		keyword = "mutation"
	}
	return keyword + " {\n  " + strings.Join(fields, "\n  ") + "\n}"
}

// ValidateQuery performs a structural sanity check: balanced braces and the
// presence of an operation keyword.
func ValidateQuery(query string) error {
	if strings.Count(query, "{") != strings.Count(query, "}") {
		return fmt.Errorf("unbalanced braces in query")
	}

	lower := strings.ToLower(query)
	for _, kw := range []string{"query", "mutation", "subscription"} {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return fmt.Errorf("query must include query, mutation, or subscription keyword")
}

// FormatQuery re-indents a query two spaces per brace depth.
func FormatQuery(query string) string {
	var lines []string
	indent := 0

	for _, line := range strings.Split(query, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, "}") {
			if indent > 0 {
				indent--
			}
		}

		lines = append(lines, strings.Repeat("  ", indent)+line)

		if strings.Contains(line, "{") {
			indent++
		}
	}

	return strings.Join(lines, "\n")
}
