package cms

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"
)

// lookup walks a dotted path through the object's JSON shape.
func lookup(o Object, path string) (any, bool) {
	head, rest, _ := strings.Cut(path, ".")
	var v any
	switch head {
	case "id", "_id":
		v = o.ID
	case "slug":
		v = o.Slug
	case "title":
		v = o.Title
	case "type":
		v = o.Type
	case "status":
		v = o.Status
	case "content":
		v = o.Content
	case "created_at":
		v = o.CreatedAt
	case "modified_at":
		v = o.ModifiedAt
	case "published_at":
		if o.PublishedAt == nil {
			return nil, false
		}
		v = *o.PublishedAt
	case "metadata":
		v = o.Metadata
	default:
		return nil, false
	}
	if rest == "" {
		return v, true
	}
	for part := range strings.SplitSeq(rest, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[part]; !ok {
			return nil, false
		}
	}
	return v, true
}

// matches reports whether o satisfies every filter entry.
func matches(o Object, filter map[string]any) bool {
	for path, want := range filter {
		got, ok := lookup(o, path)
		if !ok || !valueMatches(got, want) {
			return false
		}
	}
	return true
}

func valueMatches(got, want any) bool {
	if wants, ok := asSlice(want); ok {
		return slices.ContainsFunc(wants, func(w any) bool { return valueMatches(got, w) })
	}
	if items, ok := asSlice(got); ok {
		return slices.ContainsFunc(items, func(item any) bool { return scalarEqual(item, want) })
	}
	return scalarEqual(got, want)
}

// scalarEqual compares loosely: select values match on their key.
func scalarEqual(got, want any) bool {
	if m, ok := got.(map[string]any); ok {
		if key, ok := m["key"]; ok {
			return scalarEqual(key, want) || scalarEqual(m["value"], want)
		}
		return false
	}
	if got == nil || want == nil {
		return got == want
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// sortObjects orders objects by field, "-field" for descending. The default
// is newest first.
func sortObjects(objs []Object, field string) {
	if field == "" {
		field = "-created_at"
	}
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")
	sort.SliceStable(objs, func(i, j int) bool {
		a, _ := lookup(objs[i], field)
		b, _ := lookup(objs[j], field)
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
}

func less(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Before(y)
	case float64:
		y, ok := b.(float64)
		return ok && x < y
	case int:
		y, ok := b.(int)
		return ok && x < y
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// page applies skip and limit, limit 0 meaning no limit.
func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
