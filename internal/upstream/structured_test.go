package upstream

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean_json",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "fenced_no_language",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "prose_before_and_after",
			in:   "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want: `{"a":1}`,
		},
		{
			name: "brace_in_string_value",
			in:   `{"prompt": "use {placeholders} like this"}`,
			want: `{"prompt":"use {placeholders} like this"}`,
		},
		{
			name: "escaped_quote_in_string",
			in:   `{"prompt": "she said \"hi\" {ok}"}`,
			want: `{"prompt":"she said \"hi\" {ok}"}`,
		},
		{
			name: "nested_objects",
			in:   `{"outer": {"inner": {"deep": true}}}`,
			want: `{"outer":{"inner":{"deep":true}}}`,
		},
		{
			name: "first_of_two_objects",
			in:   `{"first": 1} and then {"second": 2}`,
			want: `{"first":1}`,
		},
		{
			name: "large_integer_survives",
			in:   `{"seed": 9007199254740993}`,
			want: `{"seed":9007199254740993}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("ExtractJSON() = %s, want %s", got, tc.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		first, err := ExtractJSON(`Result: {"a": {"b": "c"}}`)
		if err != nil {
			t.Fatalf("ExtractJSON() error = %v", err)
		}
		second, err := ExtractJSON(string(first))
		if err != nil {
			t.Fatalf("second ExtractJSON() error = %v", err)
		}
		if string(first) != string(second) {
			t.Errorf("not idempotent: %s != %s", first, second)
		}
	})

	t.Run("failures", func(t *testing.T) {
		for name, in := range map[string]string{
			"empty":      "",
			"whitespace": "   \n  ",
			"no_object":  "just prose, no json here",
			"unbalanced": `{"a": 1`,
			"array_only": `[1, 2, 3]`,
		} {
			t.Run(name, func(t *testing.T) {
				if _, err := ExtractJSON(in); err == nil {
					t.Errorf("ExtractJSON(%q) = nil error, want *ParseError", in)
				}
			})
		}
	})
}
