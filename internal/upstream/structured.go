package upstream

import (
	"encoding/json"
	"strings"
)

// ParseError reports that no valid JSON object could be recovered from a
// model reply.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "failed to parse model reply: " + e.Message
}

// ExtractJSON recovers the first JSON object from model output. Surrounding
// markdown code fences and prose are tolerated. The object span is found by
// brace-depth scanning that is aware of strings and escapes, so braces in
// prose before or after the object, or extra objects later in the reply, do
// not confuse it. Idempotent on already-clean JSON.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ParseError{Message: "empty reply"}
	}

	if stripped := stripCodeFences(text); stripped != "" {
		text = stripped
	}

	candidate := scanObject(text)
	if candidate == "" {
		return nil, &ParseError{Message: "no JSON object found"}
	}

	// UseNumber keeps numeric literals intact through the re-marshal below;
	// float64 would corrupt integers past 2^53.
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if _, ok := parsed.(map[string]any); !ok {
		return nil, &ParseError{Message: "extracted span is not a JSON object"}
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return normalized, nil
}

// stripCodeFences removes a surrounding ``` block; returns "" when the text
// is not fenced.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop the opening fence line (may carry a language tag).
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// scanObject returns the first balanced {...} span, tracking string literals
// and escape sequences so embedded braces don't end the span early.
func scanObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
