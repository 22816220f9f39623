package binder

import (
	"net/http"
	"reflect"
)

// Path binds `path:"name"` fields using extractor, typically chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		err := eachTagged(v, "path", func(field reflect.Value, name string) error {
			return setValues(field, []string{extractor(r, name)})
		})
		if err != nil {
			return invalid(ErrFailedToParsePath, err)
		}
		return nil
	}
}

// Query binds `query:"name"` fields from the URL query string. Slice fields
// accept both repeated keys and comma-separated values.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		err := eachTagged(v, "query", func(field reflect.Value, name string) error {
			return setValues(field, q[name])
		})
		if err != nil {
			return invalid(ErrFailedToParseQuery, err)
		}
		return nil
	}
}
