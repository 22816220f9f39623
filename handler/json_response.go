package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/emailcraft/pkg/binder"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// WithJSONDetails attaches error details, for example the provider error
// behind a failed campaign send.
func WithJSONDetails(details map[string][]string) JSONOption {
	return func(r *jsonResponse) {
		if r.body.Error != nil {
			r.body.Error.Details = details
		}
	}
}

// JSON renders v as the data member with status 200. An error value is
// rendered as JSONError would.
func JSON(v any, opts ...JSONOption) Response {
	if err, ok := v.(error); ok {
		return JSONError(err, opts...)
	}
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err in the error member. The status is derived from the
// error unless WithJSONStatus overrides it.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := ErrorToDetail(err)
	r := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ErrorToDetail classifies err:
//   - validator.ValidationErrors: 400 with per-field details
//   - binder errors: 400 (415 for a wrong content type)
//   - HTTPError: its own code and key
//   - anything else: 500 with a generic message
func ErrorToDetail(err error) (int, *ErrorDetail) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		msg := "Validation failed"
		if len(ve) > 0 {
			msg = ve[0].Message
		}
		return http.StatusBadRequest, &ErrorDetail{
			Code:    "validation_error",
			Message: msg,
			Details: ve.Map(),
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Message
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: msg}
	}

	if errors.Is(err, binder.ErrUnsupportedMediaType) {
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: ErrUnsupportedMedia.Key, Message: err.Error()}
	}
	if errors.Is(err, binder.ErrInvalidRequest) {
		return http.StatusBadRequest, &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternal.Key,
		Message: "An error occurred processing your request",
	}
}
