package forms

import (
	"github.com/promptweaver/weaver/internal/schema"
)

// tables holds the per-kind alias tables. The multiple spellings per field
// track the engine's unstable output contract; adding a spelling here is the
// whole fix when the engine renames a key.
var tables = map[schema.Kind][]alias{
	schema.KindImage: {
		{field: "prompt", keys: []string{"prompt", "image_prompt"}},
		{field: "prompt", keys: []string{"prompt"}, path: []string{"prompt_package"}},
		{field: "negative_prompt", keys: []string{"negative_prompt", "negative"}},
		{field: "negative_prompt", keys: []string{"negative_prompt"}, path: []string{"prompt_package"}},
		{field: "aspect_ratio", keys: []string{"aspect_ratio", "ratio"}},
		{field: "style", keys: []string{"style", "art_style"}},
		{field: "quality", keys: []string{"quality"}},
		{field: "lighting", keys: []string{"lighting"}},
		{field: "mood", keys: []string{"mood", "atmosphere"}},
		{field: "color_palette", keys: []string{"color_palette", "colors"}},
	},
	schema.KindVideo: {
		{field: "prompt", keys: []string{"prompt", "video_prompt"}},
		{field: "prompt", keys: []string{"prompt"}, path: []string{"prompt_package"}},
		{field: "negative_prompt", keys: []string{"negative_prompt", "negative"}},
		{field: "duration", keys: []string{"duration", "duration_seconds", "length"}},
		{field: "fps", keys: []string{"fps", "frame_rate"}},
		{field: "camera_movement", keys: []string{"camera_movement", "camera"}},
		{field: "aspect_ratio", keys: []string{"aspect_ratio", "ratio"}},
		{field: "style", keys: []string{"style"}},
	},
	schema.KindWebsite: {
		{field: "site_title", keys: []string{"site_title", "title"}},
		{field: "tagline", keys: []string{"tagline", "subtitle"}},
		{field: "sections", keys: []string{"sections", "pages"}},
		{field: "color_scheme", keys: []string{"color_scheme", "colors"}},
		{field: "typography", keys: []string{"typography", "font"}},
		{field: "cta", keys: []string{"cta", "call_to_action"}},
		{field: "description", keys: []string{"description", "summary"}},
	},
	schema.KindBanner: {
		{field: "brand_name", keys: []string{"brand_name", "brand"}},
		{field: "headline", keys: []string{"headline", "title"}},
		{field: "subheadline", keys: []string{"subheadline", "subtitle"}},
		{field: "cta", keys: []string{"cta", "call_to_action"}},
		{field: "size", keys: []string{"size", "dimensions"}},
		{field: "color_scheme", keys: []string{"color_scheme", "colors"}},
		{field: "style", keys: []string{"style"}},
	},
}
