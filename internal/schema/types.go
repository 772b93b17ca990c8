package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which generator a prompt is being built for.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindWebsite Kind = "website"
	KindBanner  Kind = "banner"
)

// Kinds lists every recognized generator kind.
var Kinds = []Kind{KindImage, KindVideo, KindWebsite, KindBanner}

// Valid reports whether k is a recognized generator kind.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindWebsite, KindBanner:
		return true
	}
	return false
}

// GenerateRequest is the request body for a prompt generation call.
// Optional fields are forwarded downstream only when explicitly present;
// absent fields are never synthesized with defaults.
type GenerateRequest struct {
	Type     Kind   `json:"type"`
	UserText string `json:"userText"`

	AspectRatio    string `json:"aspectRatio,omitempty"`
	Style          string `json:"style,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Lighting       string `json:"lighting,omitempty"`
	Mood           string `json:"mood,omitempty"`
	ColorPalette   string `json:"colorPalette,omitempty"`
	CameraAngle    string `json:"cameraAngle,omitempty"`
	Composition    string `json:"composition,omitempty"`
	Background     string `json:"background,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Texture        string `json:"texture,omitempty"`
	TimeOfDay      string `json:"timeOfDay,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Subject        string `json:"subject,omitempty"`
	NegativePrompt string `json:"negativePrompt,omitempty"`

	Extra ExtraFields `json:"extra,omitempty"`
}

// ExtraEntry is one key/value pair from the open-ended extra mapping.
type ExtraEntry struct {
	Key   string
	Value any
}

// ExtraFields preserves the document order of the extra mapping so prompt
// rendering stays deterministic.
type ExtraFields []ExtraEntry

// UnmarshalJSON decodes a JSON object keeping its key order.
func (e *ExtraFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("extra must be a JSON object")
	}

	var entries ExtraFields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("extra key is not a string")
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return err
		}
		entries = append(entries, ExtraEntry{Key: key, Value: val})
	}

	*e = entries
	return nil
}

// MarshalJSON encodes the entries back as an object in stored order.
func (e ExtraFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONPrompt is the structured prompt payload inside a successful response.
type JSONPrompt struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`

	AspectRatio    string `json:"aspectRatio,omitempty"`
	Style          string `json:"style,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Lighting       string `json:"lighting,omitempty"`
	Mood           string `json:"mood,omitempty"`
	ColorPalette   string `json:"colorPalette,omitempty"`
	CameraAngle    string `json:"cameraAngle,omitempty"`
	Composition    string `json:"composition,omitempty"`
	Background     string `json:"background,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Texture        string `json:"texture,omitempty"`
	TimeOfDay      string `json:"timeOfDay,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Subject        string `json:"subject,omitempty"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

// ResponseError is the machine-readable error pair on a failed response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenerateResponse is the response body for a prompt generation call.
// Exactly one of the success payload (JSONPrompt + HumanReadable) or the
// Error pair is present.
type GenerateResponse struct {
	RequestID     string         `json:"requestId"`
	Status        string         `json:"status"` // "succeeded" or "failed"
	JSONPrompt    *JSONPrompt    `json:"jsonPrompt,omitempty"`
	HumanReadable string         `json:"humanReadable,omitempty"`
	Error         *ResponseError `json:"error,omitempty"`
}

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DefaultPromptModel is applied when the upstream reply omits jsonPrompt.model.
const DefaultPromptModel = "flux-1.1"
