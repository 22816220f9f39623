// Package binder fills request structs from an *http.Request.
//
// Binders are plain functions of type func(*http.Request, any) error and are
// combined with handler.WithBinders. Each one only touches the struct fields
// it owns: JSON decodes the body, Path reads `path:"..."` tagged fields, Query
// reads `query:"..."` tagged fields and File reads `file:"..."` tagged
// multipart uploads.
//
// Every returned error wraps ErrInvalidRequest so callers can map it to a
// 400 response.
package binder
