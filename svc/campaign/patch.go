package campaign

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/contact"
)

var ErrInvalidPatch = errors.New("invalid campaign patch")

// patchSchema constrains raw updates to the fields a campaign owns. Only
// states a campaign can rest in may be written; sending and sent are
// reached through Dispatcher.Send.
const patchSchema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "metadata": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "campaign_name": {"type": "string", "minLength": 1},
        "email_template": {"type": "string", "minLength": 1},
        "campaign_status": {
          "oneOf": [
            {"$ref": "#/definitions/status"},
            {
              "type": "object",
              "required": ["key"],
              "properties": {"key": {"$ref": "#/definitions/status"}, "value": {"type": "string"}}
            }
          ]
        },
        "target_tags": {"type": ["array", "null"], "items": {"type": "string"}},
        "send_date": {"type": ["string", "null"]},
        "campaign_notes": {"type": ["string", "null"]},
        "campaign_stats": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "recipients": {"type": "integer", "minimum": 0},
            "delivered": {"type": "integer", "minimum": 0},
            "opened": {"type": "integer", "minimum": 0},
            "clicked": {"type": "integer", "minimum": 0},
            "open_rate": {"type": "number", "minimum": 0, "maximum": 1},
            "click_rate": {"type": "number", "minimum": 0, "maximum": 1}
          }
        }
      }
    }
  },
  "definitions": {
    "status": {"enum": ["draft", "scheduled", "paused"]}
  }
}`

var compiledPatchSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(patchSchema))
	if err != nil {
		panic(err)
	}
	return s
}()

// Patch is a raw partial update: {"title": ..., "metadata": {...}}.
type Patch struct {
	Title    *string        `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ParsePatch validates raw against the patch schema and decodes it. Schema
// violations come back as validator.ValidationErrors keyed by field path.
func ParsePatch(raw []byte) (Patch, error) {
	result, err := compiledPatchSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Patch{}, errors.Join(ErrInvalidPatch, err)
	}
	if !result.Valid() {
		var verrs validator.ValidationErrors
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "(root)" {
				field = "body"
			}
			field = strings.TrimPrefix(field, "(root).")
			verrs = append(verrs, validator.ValidationError{Field: field, Message: desc.Description()})
		}
		return Patch{}, verrs
	}

	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return Patch{}, errors.Join(ErrInvalidPatch, err)
	}
	p.normalize()
	return p, nil
}

// normalize stores select values by key and keeps the title in step with
// the campaign name.
func (p *Patch) normalize() {
	if p.Metadata == nil {
		return
	}
	if st, ok := p.Metadata["campaign_status"].(map[string]any); ok {
		p.Metadata["campaign_status"] = st["key"]
	}
	if tags, ok := p.Metadata["target_tags"].([]any); ok {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		p.Metadata["target_tags"] = contact.NormalizeTags(out)
	}
	if name, ok := p.Metadata["campaign_name"].(string); ok && p.Title == nil {
		p.Title = &name
	}
}
