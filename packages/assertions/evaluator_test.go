package assertions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqbench/packages/http"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
		Duration:   150 * time.Millisecond,
	}
}

func TestValidate_StatusEquals(t *testing.T) {
	resp := jsonResponse(404, `{}`)

	passed, messages := Validate(resp, []Assertion{
		{Field: "status", Operator: OpEquals, Expected: 200},
	})

	assert.False(t, passed)
	require.Len(t, messages, 1)
	assert.Equal(t, "Assertion failed: status equals 200 (actual: 404)", messages[0])
}

func TestValidate_AllAssertionsEvaluated(t *testing.T) {
	resp := jsonResponse(500, `{"name": "ana"}`)

	passed, messages := Validate(resp, []Assertion{
		{Field: "status", Operator: OpEquals, Expected: 200},
		{Field: "name", Operator: OpEquals, Expected: "bob"},
		{Field: "name", Operator: OpEquals, Expected: "ana"},
	})

	assert.False(t, passed)
	assert.Len(t, messages, 2, "no short-circuit: every violation reported")
}

func TestValidate_Idempotent(t *testing.T) {
	resp := jsonResponse(200, `{"count": 3}`)
	as := []Assertion{
		{Field: "count", Operator: OpGreaterThan, Expected: 5},
		{Field: "status", Operator: OpEquals, Expected: 200},
	}

	passed1, messages1 := Validate(resp, as)
	passed2, messages2 := Validate(resp, as)

	assert.Equal(t, passed1, passed2)
	assert.Equal(t, messages1, messages2)
}

func TestEvaluator_Operators(t *testing.T) {
	resp := jsonResponse(201, `{
		"id": 7,
		"name": "widget",
		"price": 19.5,
		"tags": ["new", "sale"],
		"owner": {"id": 1},
		"deleted": null,
		"active": true
	}`)

	tests := []struct {
		name      string
		assertion Assertion
		passed    bool
	}{
		{"equals number", Assertion{"id", OpEquals, 7}, true},
		{"equals number mismatch", Assertion{"id", OpEquals, 8}, false},
		{"equals string vs number fails", Assertion{"id", OpEquals, "7"}, false},
		{"not_equals", Assertion{"id", OpNotEquals, 8}, true},
		{"contains substring", Assertion{"name", OpContains, "idge"}, true},
		{"contains on array membership", Assertion{"tags", OpContains, "sale"}, true},
		{"contains miss on array", Assertion{"tags", OpContains, "old"}, false},
		{"contains on number is false", Assertion{"id", OpContains, 7}, false},
		{"not_contains on number is true", Assertion{"id", OpNotContains, 7}, true},
		{"not_contains substring", Assertion{"name", OpNotContains, "xyz"}, true},
		{"greater_than", Assertion{"price", OpGreaterThan, 10}, true},
		{"greater_than string coercion", Assertion{"price", OpGreaterThan, "19"}, true},
		{"greater_than uncoercible fails", Assertion{"name", OpGreaterThan, 1}, false},
		{"less_than", Assertion{"id", OpLessThan, 10}, true},
		{"greater_than_or_equal boundary", Assertion{"id", OpGreaterThanOrEqual, 7}, true},
		{"less_than_or_equal boundary", Assertion{"id", OpLessThanOrEqual, 7}, true},
		{"exists", Assertion{"owner.id", OpExists, nil}, true},
		{"exists on null field", Assertion{"deleted", OpExists, nil}, true},
		{"exists miss", Assertion{"owner.name", OpExists, nil}, false},
		{"not_exists", Assertion{"missing", OpNotExists, nil}, true},
		{"is_type string", Assertion{"name", OpIsType, "string"}, true},
		{"is_type number", Assertion{"price", OpIsType, "number"}, true},
		{"is_type boolean", Assertion{"active", OpIsType, "boolean"}, true},
		{"is_type array", Assertion{"tags", OpIsType, "array"}, true},
		{"is_type object", Assertion{"owner", OpIsType, "object"}, true},
		{"is_type null", Assertion{"deleted", OpIsType, "null"}, true},
		{"is_type mismatch", Assertion{"name", OpIsType, "number"}, false},
		{"is_type unknown name", Assertion{"name", OpIsType, "tuple"}, false},
		{"unknown operator fails", Assertion{"name", "regex", ".*"}, false},
		{"status equals", Assertion{"status", OpEquals, 201}, true},
		{"response_time bounded", Assertion{"response_time", OpLessThan, 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, messages := Validate(resp, []Assertion{tt.assertion})
			assert.Equal(t, tt.passed, passed)
			if !tt.passed {
				require.Len(t, messages, 1)
				assert.Contains(t, messages[0], "Assertion failed: "+tt.assertion.Field)
			}
		})
	}
}

func TestValidate_ExistsMatchesExtractor(t *testing.T) {
	// exists passes exactly when the extractor finds the path
	resp := jsonResponse(200, `{"a": {"b": [10, 20]}}`)

	passed, _ := Validate(resp, []Assertion{{Field: "a.b.1", Operator: OpExists}})
	assert.True(t, passed)

	passed, _ = Validate(resp, []Assertion{{Field: "a.b.9", Operator: OpExists}})
	assert.False(t, passed)
}

func TestValidate_MatchesSchema(t *testing.T) {
	resp := jsonResponse(200, `{"user": {"id": 3, "name": "ana"}}`)

	schema := map[string]any{
		"type":     "object",
		"required": []any{"id", "name"},
		"properties": map[string]any{
			"id":   map[string]any{"type": "number"},
			"name": map[string]any{"type": "string"},
		},
	}

	passed, _ := Validate(resp, []Assertion{{Field: "user", Operator: OpMatchesSchema, Expected: schema}})
	assert.True(t, passed)

	schema["required"] = []any{"id", "email"}
	passed, messages := Validate(resp, []Assertion{{Field: "user", Operator: OpMatchesSchema, Expected: schema}})
	assert.False(t, passed)
	assert.Len(t, messages, 1)
}

func TestValidate_NonJSONBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       []byte("pong"),
	}

	// body paths never resolve on plain text, but status still works
	passed, _ := Validate(resp, []Assertion{{Field: "status", Operator: OpEquals, Expected: 200}})
	assert.True(t, passed)

	passed, _ = Validate(resp, []Assertion{{Field: "message", Operator: OpExists}})
	assert.False(t, passed)
}
