// Package template provides reusable request templates for common APIs.
package template

import (
	"sort"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/vars"
)

// Template is a partially filled request definition. Placeholders in its
// fields are bound at execution time like any other request.
type Template struct {
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	Description     string            `json:"description"`
	BaseURL         string            `json:"base_url"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            *string           `json:"body,omitempty"`
	ExampleResponse any               `json:"example_response,omitempty"`
}

// Overrides are the caller's customizations applied on top of a template.
type Overrides struct {
	Name    string
	Method  string
	Path    string
	Headers map[string]string
	Body    *string
	Params  map[string]string
}

func strPtr(s string) *string { return &s }

var builtIn = map[string]Template{
	"github_api": {
		Name:        "GitHub API",
		Category:    "REST",
		Description: "GitHub REST API v3 request template",
		BaseURL:     "https://api.github.com",
		Method:      "GET",
		Headers: map[string]string{
			"Authorization": "Bearer {{GITHUB_TOKEN}}",
			"Accept":        "application/vnd.github.v3+json",
		},
		ExampleResponse: map[string]any{"id": 1, "name": "repository"},
	},
	"stripe_api": {
		Name:        "Stripe API",
		Category:    "REST",
		Description: "Stripe REST API request template",
		BaseURL:     "https://api.stripe.com/v1",
		Method:      "POST",
		Headers: map[string]string{
			"Authorization": "Bearer {{STRIPE_API_KEY}}",
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		ExampleResponse: map[string]any{"object": "charge", "id": "ch_1234"},
	},
	"slack_api": {
		Name:        "Slack API",
		Category:    "REST",
		Description: "Slack Webhook or API request template",
		BaseURL:     "https://hooks.slack.com/services",
		Method:      "POST",
		Headers:     map[string]string{"Content-Type": "application/json"},
		Body:        strPtr(`{"text": "Message from {{APP_NAME}}", "channel": "{{CHANNEL}}"}`),
		ExampleResponse: map[string]any{"ok": true},
	},
	"jsonplaceholder": {
		Name:            "JSONPlaceholder",
		Category:        "REST",
		Description:     "JSONPlaceholder test API template",
		BaseURL:         "https://jsonplaceholder.typicode.com",
		Method:          "GET",
		ExampleResponse: map[string]any{"userId": 1, "id": 1, "title": "test"},
	},
	"openai_api": {
		Name:        "OpenAI API",
		Category:    "REST",
		Description: "OpenAI Chat Completion API",
		BaseURL:     "https://api.openai.com/v1",
		Method:      "POST",
		Headers: map[string]string{
			"Authorization": "Bearer {{OPENAI_API_KEY}}",
			"Content-Type":  "application/json",
		},
		Body:            strPtr(`{"model": "gpt-3.5-turbo", "messages": [{"role": "user", "content": "{{MESSAGE}}"}]}`),
		ExampleResponse: map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "response"}}}},
	},
}

// BuiltIn returns a copy of the built-in template set, keyed by identifier.
func BuiltIn() map[string]Template {
	out := make(map[string]Template, len(builtIn))
	for k, v := range builtIn {
		out[k] = v
	}
	return out
}

// BuiltInKeys returns the built-in template identifiers in sorted order.
func BuiltInKeys() []string {
	keys := make([]string, 0, len(builtIn))
	for k := range builtIn {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks up a built-in template by identifier.
func Get(key string) (Template, bool) {
	t, ok := builtIn[key]
	return t, ok
}

// Apply combines the template with overrides into a request definition.
// Override fields win; headers are merged key by key.
func (t Template) Apply(o Overrides) chain.RequestDefinition {
	def := chain.RequestDefinition{
		Name:   o.Name,
		Method: t.Method,
		URL:    t.BaseURL + o.Path,
		Body:   t.Body,
		Params: o.Params,
	}
	if def.Name == "" {
		def.Name = t.Name
	}
	if o.Method != "" {
		def.Method = o.Method
	}
	if o.Body != nil {
		def.Body = o.Body
	}

	if len(t.Headers) > 0 || len(o.Headers) > 0 {
		def.Headers = make(map[string]string, len(t.Headers)+len(o.Headers))
		for k, v := range t.Headers {
			def.Headers[k] = v
		}
		for k, v := range o.Headers {
			def.Headers[k] = v
		}
	}

	return def
}

// Variables lists the placeholder names the template needs, in order of
// first appearance across URL, headers, then body.
func (t Template) Variables() []string {
	seen := make(map[string]bool)
	var out []string

	collect := func(text string) {
		for _, name := range vars.ExtractVariableNames(text) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}

	collect(t.BaseURL)

	headerKeys := make([]string, 0, len(t.Headers))
	for k := range t.Headers {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		collect(t.Headers[k])
	}

	if t.Body != nil {
		collect(*t.Body)
	}
	return out
}
