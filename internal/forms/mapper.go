// Package forms translates the workflow engine's final payload into flat UI
// form fields. Each generator kind has one declarative alias table: the first
// present alias wins, absent keys leave existing form state untouched.
package forms

import (
	"fmt"
	"strings"

	"github.com/promptweaver/weaver/internal/schema"
)

// SetField receives one resolved form field. Called only for fields whose
// value is present and non-null, so locked-in form state survives partial
// payloads.
type SetField func(field, value string)

// alias maps one logical form field to its accepted key spellings. Path
// points into a nested object first when set.
type alias struct {
	field string
	keys  []string
	path  []string
}

// Apply walks the alias table for kind over final. A nil final is a no-op.
func Apply(kind schema.Kind, final map[string]any, set SetField) {
	if final == nil || set == nil {
		return
	}
	done := map[string]bool{}
	for _, a := range tables[kind] {
		if done[a.field] {
			continue
		}
		if v, ok := resolve(final, a); ok {
			set(a.field, v)
			done[a.field] = true
		}
	}
}

// Fields returns the logical field names for a kind, in table order.
func Fields(kind schema.Kind) []string {
	aliases := tables[kind]
	out := make([]string, 0, len(aliases))
	seen := map[string]bool{}
	for _, a := range aliases {
		if !seen[a.field] {
			out = append(out, a.field)
			seen[a.field] = true
		}
	}
	return out
}

func resolve(final map[string]any, a alias) (string, bool) {
	node := final
	for _, step := range a.path {
		next, ok := node[step].(map[string]any)
		if !ok {
			return "", false
		}
		node = next
	}
	for _, key := range a.keys {
		v, ok := node[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := render(v); ok {
			return s, true
		}
	}
	return "", false
}

// render flattens a payload value to form-field text. Lists of strings join
// with a comma; nested objects are not flattened.
func render(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case bool:
		return fmt.Sprintf("%t", t), true
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%g", t), true
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}
