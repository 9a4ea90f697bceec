// Package vars implements {{VARIABLE}} substitution for request templates.
//
// Substitution is deliberately forgiving: an undefined variable renders as a
// visible {{UNDEFINED:NAME}} sentinel instead of failing, so a broken chain
// fails loudly downstream (for example as a malformed URL) rather than
// silently dropping a placeholder.
package vars

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Substitute replaces every {{NAME}} placeholder in text with the value bound
// to NAME in variables. Unbound names render as {{UNDEFINED:NAME}}. Empty
// input is returned unchanged.
func Substitute(text string, variables map[string]string) string {
	if text == "" {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := variables[name]; ok {
			return value
		}
		return "{{UNDEFINED:" + name + "}}"
	})
}

// SubstituteOpt is Substitute for optional text. A nil pointer passes through
// untouched; it is not coerced to an empty string.
func SubstituteOpt(text *string, variables map[string]string) *string {
	if text == nil {
		return nil
	}
	s := Substitute(*text, variables)
	return &s
}

// SubstituteMap applies Substitute to every value of a string map. Keys are
// left alone. A nil map stays nil.
func SubstituteMap(values map[string]string, variables map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = Substitute(v, variables)
	}
	return result
}

// SubstituteTree walks an arbitrary JSON-like tree (maps, slices, scalars)
// and applies Substitute to every string leaf. Non-string leaves (numbers,
// booleans, nil) are returned as-is.
func SubstituteTree(node any, variables map[string]string) any {
	switch v := node.(type) {
	case string:
		return Substitute(v, variables)
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, child := range v {
			result[k] = SubstituteTree(child, variables)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, child := range v {
			result[i] = SubstituteTree(child, variables)
		}
		return result
	default:
		return node
	}
}

// ExtractVariableNames returns every variable name referenced in text, in
// order of first appearance. Duplicates are kept; callers that want a set can
// dedupe themselves.
func ExtractVariableNames(text string) []string {
	if text == "" {
		return nil
	}
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
