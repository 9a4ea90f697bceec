package assertions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/reqbench/packages/extract"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
)

// Supported operators. An operator outside this set never errors: the
// assertion simply fails with a message naming it.
const (
	OpEquals             = "equals"
	OpNotEquals          = "not_equals"
	OpContains           = "contains"
	OpNotContains        = "not_contains"
	OpGreaterThan        = "greater_than"
	OpLessThan           = "less_than"
	OpGreaterThanOrEqual = "greater_than_or_equal"
	OpLessThanOrEqual    = "less_than_or_equal"
	OpExists             = "exists"
	OpNotExists          = "not_exists"
	OpIsType             = "is_type"
	OpMatchesSchema      = "matches_schema"
)

// Reserved field names resolved from the response envelope instead of the body.
const (
	FieldStatus       = "status"
	FieldResponseTime = "response_time"
)

// Assertion is one declarative check against a response.
type Assertion struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
}

// Result holds the outcome of a single assertion.
type Result struct {
	Assertion Assertion
	Passed    bool
	Actual    any
	Message   string
}

// Evaluator evaluates assertions against one response. The body is parsed
// once; evaluation itself is stateless, so running the same assertions twice
// yields identical results.
type Evaluator struct {
	response *http.Response
	body     extract.Body
}

func NewEvaluator(resp *http.Response) *Evaluator {
	return &Evaluator{
		response: resp,
		body:     extract.ParseBody(resp.ContentType(), resp.Body),
	}
}

// Validate evaluates every assertion against the response. All assertions are
// evaluated even after a failure, so the caller sees every violation at once.
// Each failure contributes one message of the form
// "Assertion failed: <field> <operator> <expected> (actual: <actual>)".
func Validate(resp *http.Response, as []Assertion) (bool, []string) {
	results := EvaluateAll(resp, as)
	var messages []string
	for _, r := range results {
		if !r.Passed {
			messages = append(messages, r.Message)
		}
	}
	return len(messages) == 0, messages
}

// EvaluateAll is Validate with per-assertion detail kept for presentation.
func EvaluateAll(resp *http.Response, as []Assertion) []*Result {
	e := NewEvaluator(resp)
	results := make([]*Result, len(as))
	for i, a := range as {
		results[i] = e.Evaluate(a)
	}
	return results
}

func (e *Evaluator) Evaluate(a Assertion) *Result {
	actual, found := e.actualValue(a.Field)

	result := &Result{Assertion: a, Actual: actual}
	result.Passed = e.check(actual, found, a.Operator, a.Expected)
	if !result.Passed {
		result.Message = fmt.Sprintf("Assertion failed: %s %s %v (actual: %v)",
			a.Field, a.Operator, a.Expected, actual)
	}
	return result
}

// actualValue resolves an assertion field. "status" and "response_time" come
// from the response envelope; everything else is a body path.
func (e *Evaluator) actualValue(field string) (any, bool) {
	switch field {
	case FieldStatus:
		return e.response.StatusCode, true
	case FieldResponseTime:
		return e.response.Duration.Seconds(), true
	default:
		return e.body.Lookup(field)
	}
}

func (e *Evaluator) check(actual any, found bool, operator string, expected any) bool {
	switch operator {
	case OpEquals:
		return looseEquals(actual, expected)
	case OpNotEquals:
		return !looseEquals(actual, expected)
	case OpContains:
		return contains(actual, expected)
	case OpNotContains:
		return !contains(actual, expected)
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		return compareNumeric(actual, expected, operator)
	case OpExists:
		return found
	case OpNotExists:
		return !found
	case OpIsType:
		return matchesType(actual, expected)
	case OpMatchesSchema:
		return matchesSchema(actual, expected)
	default:
		return false
	}
}

// looseEquals is structural equality with numeric cross-type tolerance:
// a JSON body yields float64 while a hand-written expectation may be an int.
// Strings never compare equal to numbers.
func looseEquals(actual, expected any) bool {
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	af, aok := numericValue(actual)
	ef, eok := numericValue(expected)
	return aok && eok && af == ef
}

// contains is a substring test on text and a membership test on sequences.
// Any other actual kind cannot contain anything.
func contains(actual, expected any) bool {
	switch v := actual.(type) {
	case string:
		return strings.Contains(v, fmt.Sprintf("%v", expected))
	case []any:
		for _, item := range v {
			if looseEquals(item, expected) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareNumeric(actual, expected any, operator string) bool {
	af, aok := coerceFloat(actual)
	ef, eok := coerceFloat(expected)
	if !aok || !eok {
		return false
	}
	switch operator {
	case OpGreaterThan:
		return af > ef
	case OpLessThan:
		return af < ef
	case OpGreaterThanOrEqual:
		return af >= ef
	case OpLessThanOrEqual:
		return af <= ef
	}
	return false
}

func matchesType(actual, expected any) bool {
	switch fmt.Sprintf("%v", expected) {
	case "string":
		_, ok := actual.(string)
		return ok
	case "number":
		_, ok := numericValue(actual)
		return ok
	case "boolean":
		_, ok := actual.(bool)
		return ok
	case "array":
		_, ok := actual.([]any)
		return ok
	case "object":
		_, ok := actual.(map[string]any)
		return ok
	case "null":
		return actual == nil
	default:
		return false
	}
}

// matchesSchema validates the actual value against an inline JSON Schema.
func matchesSchema(actual, expected any) bool {
	schemaJSON, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return false
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(actualJSON),
	)
	if err != nil {
		return false
	}
	return result.Valid()
}

// numericValue reports a value's float form for genuinely numeric kinds only.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// coerceFloat additionally parses numeric strings, matching the relational
// operators' "coerce both operands" contract.
func coerceFloat(v any) (float64, bool) {
	if f, ok := numericValue(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
