package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const requestSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "userText"],
  "properties": {
    "type": {"enum": ["image", "video", "website", "banner"]},
    "userText": {"type": "string", "minLength": 1, "maxLength": 2000},
    "aspectRatio": {"enum": ["1:1", "4:3", "3:4", "16:9", "9:16", "21:9"]},
    "style": {"type": "string", "maxLength": 200},
    "quality": {"type": "string", "maxLength": 200},
    "lighting": {"type": "string", "maxLength": 200},
    "mood": {"type": "string", "maxLength": 200},
    "colorPalette": {"type": "string", "maxLength": 200},
    "cameraAngle": {"type": "string", "maxLength": 200},
    "composition": {"type": "string", "maxLength": 200},
    "background": {"type": "string", "maxLength": 200},
    "medium": {"type": "string", "maxLength": 200},
    "texture": {"type": "string", "maxLength": 200},
    "timeOfDay": {"type": "string", "maxLength": 200},
    "environment": {"type": "string", "maxLength": 200},
    "subject": {"type": "string", "maxLength": 200},
    "negativePrompt": {"type": "string", "maxLength": 500},
    "extra": {
      "type": "object",
      "maxProperties": 20,
      "additionalProperties": {"type": ["string", "number", "boolean"]}
    }
  },
  "additionalProperties": false
}`

const responseSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["jsonPrompt", "humanReadable"],
  "properties": {
    "jsonPrompt": {
      "type": "object",
      "required": ["prompt"],
      "properties": {
        "prompt": {"type": "string", "minLength": 1},
        "model": {"type": "string"}
      }
    },
    "humanReadable": {"type": "string", "minLength": 1}
  }
}`

var (
	requestSchema  = mustCompile("generate_request.json", requestSchemaDoc)
	responseSchema = mustCompile("generate_response.json", responseSchemaDoc)
)

func mustCompile(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// ValidationError reports every violated field constraint from one validation
// pass so callers can surface all problems at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// ValidateRequest checks raw against the request contract and decodes it.
// Unknown generator kinds and unknown top-level fields are rejected.
func ValidateRequest(raw []byte) (*GenerateRequest, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Violations: []string{"body is not valid JSON: " + err.Error()}}
	}

	if err := requestSchema.Validate(doc); err != nil {
		return nil, &ValidationError{Violations: flatten(err)}
	}

	var req GenerateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, &ValidationError{Violations: []string{"decode: " + err.Error()}}
	}
	return &req, nil
}

// ValidateResponse checks the upstream reply against the response contract.
// The only documented default: jsonPrompt.model falls back to
// DefaultPromptModel when absent. Nothing else is coerced.
func ValidateResponse(raw []byte) (*JSONPrompt, string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", &ValidationError{Violations: []string{"reply is not valid JSON: " + err.Error()}}
	}

	if err := responseSchema.Validate(doc); err != nil {
		return nil, "", &ValidationError{Violations: flatten(err)}
	}

	var body struct {
		JSONPrompt    JSONPrompt `json:"jsonPrompt"`
		HumanReadable string     `json:"humanReadable"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, "", &ValidationError{Violations: []string{"decode: " + err.Error()}}
	}

	if body.JSONPrompt.Model == "" {
		body.JSONPrompt.Model = DefaultPromptModel
	}
	return &body.JSONPrompt, body.HumanReadable, nil
}

// flatten collects leaf causes of a jsonschema validation error into
// field-level messages.
func flatten(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}

	var out []string
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := v.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, v.Message))
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
