// Package prompt renders a validated generation request into the instruction
// text sent to the upstream model. Rendering is deterministic: the same
// request always produces byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/promptweaver/weaver/internal/schema"
)

// SystemInstruction is the fixed system message for every upstream call.
// The reply contract matches schema.ValidateResponse.
const SystemInstruction = `You are a prompt engineering assistant for image, video, website and banner generators.
Reply with ONLY a JSON object, no markdown and no commentary, of the form:
{"jsonPrompt": {"prompt": "<expanded generation prompt>", "model": "<optional model name>", ...descriptive fields...}, "humanReadable": "<one-paragraph plain-language description>"}
Include a descriptive field in jsonPrompt only when the user supplied it. Never invent values.`

// field is one optional request field with its rendered label.
type field struct {
	label string
	value func(*schema.GenerateRequest) string
}

// fieldOrder fixes the rendering order of optional fields. Changing this
// order changes prompt bytes, so it is append-only.
var fieldOrder = []field{
	{"Aspect ratio", func(r *schema.GenerateRequest) string { return r.AspectRatio }},
	{"Style", func(r *schema.GenerateRequest) string { return r.Style }},
	{"Quality", func(r *schema.GenerateRequest) string { return r.Quality }},
	{"Lighting", func(r *schema.GenerateRequest) string { return r.Lighting }},
	{"Mood", func(r *schema.GenerateRequest) string { return r.Mood }},
	{"Color palette", func(r *schema.GenerateRequest) string { return r.ColorPalette }},
	{"Camera angle", func(r *schema.GenerateRequest) string { return r.CameraAngle }},
	{"Composition", func(r *schema.GenerateRequest) string { return r.Composition }},
	{"Background", func(r *schema.GenerateRequest) string { return r.Background }},
	{"Medium", func(r *schema.GenerateRequest) string { return r.Medium }},
	{"Texture", func(r *schema.GenerateRequest) string { return r.Texture }},
	{"Time of day", func(r *schema.GenerateRequest) string { return r.TimeOfDay }},
	{"Environment", func(r *schema.GenerateRequest) string { return r.Environment }},
	{"Subject", func(r *schema.GenerateRequest) string { return r.Subject }},
	{"Negative prompt", func(r *schema.GenerateRequest) string { return r.NegativePrompt }},
}

// Build renders req as the user message for the upstream model. The kind and
// user text are always emitted; optional fields only when present and
// non-empty; extra entries last, in document order.
func Build(req *schema.GenerateRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generator: %s\n", req.Type)
	fmt.Fprintf(&b, "Request: %s\n", req.UserText)

	for _, f := range fieldOrder {
		if v := f.value(req); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.label, v)
		}
	}

	for _, entry := range req.Extra {
		fmt.Fprintf(&b, "%s: %s\n", entry.Key, renderValue(entry.Value))
	}

	return b.String()
}

// renderValue formats an extra value without float artifacts; extra values
// are decoded with json.Number so "2" stays "2".
func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
