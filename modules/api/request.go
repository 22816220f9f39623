package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/emailcraft/pkg/binder"
	"github.com/dmitrymomot/emailcraft/pkg/file"
)

var (
	jsonBody   = binder.JSON()
	pathParams = binder.Path(chi.URLParam)
	uploadForm = binder.File(file.MaxImageSize)
)

// optionalJSONBody decodes the body only when the client sent one.
func optionalJSONBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return jsonBody(r, v)
}

type idRequest struct {
	ID string `path:"id"`
}
