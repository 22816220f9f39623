package cms

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"time"
)

// Default object status for inserts.
const StatusPublished = "published"

type Object struct {
	ID          string         `json:"id" bson:"_id"`
	Slug        string         `json:"slug" bson:"slug"`
	Title       string         `json:"title" bson:"title"`
	Type        string         `json:"type" bson:"type"`
	Status      string         `json:"status,omitempty" bson:"status"`
	Content     string         `json:"content,omitempty" bson:"content,omitempty"`
	Bucket      string         `json:"bucket,omitempty" bson:"bucket,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	ModifiedAt  time.Time      `json:"modified_at" bson:"modified_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty" bson:"published_at,omitempty"`
	Metadata    map[string]any `json:"metadata" bson:"metadata"`
}

// Meta returns the metadata value stored under key, or nil.
func (o Object) Meta(key string) any {
	if o.Metadata == nil {
		return nil
	}
	return o.Metadata[key]
}

// DecodeMetadata unmarshals the metadata map into v.
func (o Object) DecodeMetadata(v any) error {
	raw, err := json.Marshal(o.Metadata)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Query selects objects. Filter keys are dotted paths into the object
// ("metadata.tags", "status"). A slice value matches any of its elements.
type Query struct {
	Type   string
	ID     string
	Filter map[string]any
	// Props restricts the returned top-level fields, e.g. "id", "title", "metadata".
	Props []string
	// Depth >= 1 resolves configured relation fields into objects.
	Depth int
	Limit int
	Skip  int
	// Sort is a field name, prefixed with "-" for descending order.
	Sort string
}

type InsertInput struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Slug     string         `json:"slug,omitempty"`
	Status   string         `json:"status,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateInput changes an object. Metadata keys are merged into the stored
// metadata; a nil value removes the key.
type UpdateInput struct {
	Title    *string        `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Store interface {
	Find(ctx context.Context, q Query) ([]Object, int, error)
	FindOne(ctx context.Context, q Query) (*Object, error)
	InsertOne(ctx context.Context, in InsertInput) (*Object, error)
	UpdateOne(ctx context.Context, id string, in UpdateInput) (*Object, error)
	DeleteOne(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Relations maps an object type to its relation fields and the type each
// field points at: {"campaigns": {"email_template": "email-templates"}}.
type Relations map[string]map[string]string

// Targets returns the types referenced from objects of type t.
func (r Relations) Targets(t string) []string {
	var out []string
	for _, target := range r[t] {
		out = append(out, target)
	}
	return out
}

func (in InsertInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Type) == "" {
		return ErrInvalidInput
	}
	return nil
}

func (q Query) validate() error {
	if q.Limit < 0 || q.Skip < 0 || q.Depth < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// mergeMetadata applies patch to dst in place following UpdateInput rules.
func mergeMetadata(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
	return dst
}

// cloneObject returns a deep copy so callers never alias stored maps.
func cloneObject(o Object) Object {
	out := o
	out.Metadata = cloneMap(o.Metadata)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case Object:
		return cloneObject(t)
	default:
		return v
	}
}

// applyProps zeroes the fields not listed in props.
func applyProps(o Object, props []string) Object {
	if len(props) == 0 {
		return o
	}
	keep := make(map[string]bool, len(props))
	for _, p := range props {
		keep[strings.TrimSpace(p)] = true
	}
	var out Object
	if keep["id"] {
		out.ID = o.ID
	}
	if keep["slug"] {
		out.Slug = o.Slug
	}
	if keep["title"] {
		out.Title = o.Title
	}
	if keep["type"] {
		out.Type = o.Type
	}
	if keep["status"] {
		out.Status = o.Status
	}
	if keep["content"] {
		out.Content = o.Content
	}
	if keep["bucket"] {
		out.Bucket = o.Bucket
	}
	if keep["created_at"] {
		out.CreatedAt = o.CreatedAt
	}
	if keep["modified_at"] {
		out.ModifiedAt = o.ModifiedAt
	}
	if keep["published_at"] {
		out.PublishedAt = o.PublishedAt
	}
	if keep["metadata"] {
		out.Metadata = o.Metadata
	} else {
		// "metadata.key" keeps a single metadata field.
		for p := range keep {
			if key, ok := strings.CutPrefix(p, "metadata."); ok {
				if out.Metadata == nil {
					out.Metadata = map[string]any{}
				}
				if v, ok := o.Metadata[key]; ok {
					out.Metadata[key] = v
				}
			}
		}
	}
	return out
}

// fetcher loads a single object by id; used to resolve relations.
type fetcher func(ctx context.Context, id string) (*Object, error)

// resolveRelations replaces relation ids in o.Metadata with the referenced
// objects. Missing references resolve to nil.
func resolveRelations(ctx context.Context, o *Object, rel Relations, get fetcher) error {
	fields := rel[o.Type]
	if len(fields) == 0 || o.Metadata == nil {
		return nil
	}
	md := maps.Clone(o.Metadata)
	for field := range fields {
		id, ok := md[field].(string)
		if !ok || id == "" {
			continue
		}
		ref, err := get(ctx, id)
		switch {
		case err == nil:
			md[field] = objectToMap(*ref)
		case isNotFound(err):
			md[field] = nil
		default:
			return err
		}
	}
	o.Metadata = md
	return nil
}

// objectToMap renders an object the way it appears nested in a parent's
// metadata over the wire.
func objectToMap(o Object) map[string]any {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
