// Package extract reads values out of HTTP response bodies using dotted
// paths, for chaining and assertions.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Body is a response body in its parsed form. A body is either structured
// JSON or plain text; parsing never fails, it just falls back to text.
type Body struct {
	raw    []byte
	parsed gjson.Result
	isJSON bool
}

// ParseBody classifies a response body. The body is treated as JSON when the
// content type declares it or when the raw bytes parse as JSON on their own;
// anything else stays plain text.
func ParseBody(contentType string, raw []byte) Body {
	b := Body{raw: raw}
	if strings.Contains(contentType, "application/json") || gjson.ValidBytes(raw) {
		if gjson.ValidBytes(raw) {
			b.parsed = gjson.ParseBytes(raw)
			b.isJSON = true
		}
	}
	return b
}

// IsJSON reports whether the body parsed as structured JSON.
func (b Body) IsJSON() bool { return b.isJSON }

// Text returns the raw body as a string.
func (b Body) Text() string { return string(b.raw) }

// Value returns the decoded JSON value, or the raw text for non-JSON bodies.
func (b Body) Value() any {
	if b.isJSON {
		return b.parsed.Value()
	}
	return string(b.raw)
}

// Lookup resolves a dot-separated path against the body. Each segment is a
// mapping key when the current value is an object, or a numeric index when it
// is an array. Lookup reports false (not found) on a missing key, an
// out-of-range or non-numeric index into an array, or when segments remain
// after traversal hits a scalar. Non-JSON bodies never match.
func (b Body) Lookup(path string) (any, bool) {
	if !b.isJSON || path == "" {
		return nil, false
	}

	current := b.parsed
	for _, segment := range strings.Split(path, ".") {
		switch {
		case current.IsObject():
			current = current.Get(gjson.Escape(segment))
			if !current.Exists() {
				return nil, false
			}
		case current.IsArray():
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 {
				return nil, false
			}
			items := current.Array()
			if idx >= len(items) {
				return nil, false
			}
			current = items[idx]
		default:
			return nil, false
		}
	}
	return current.Value(), true
}

// Stringify renders an extracted value as the string bound into the variable
// mapping. Whole numbers render without a decimal point so a numeric id can
// be spliced into a URL.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
