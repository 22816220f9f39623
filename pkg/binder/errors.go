package binder

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrFailedToParseForm    = errors.New("failed to parse multipart form")
	ErrFileTooLarge         = errors.New("uploaded file is too large")
	ErrInvalidTarget        = errors.New("bind target must be a non-nil pointer to struct")
)

func invalid(kind error, detail error) error {
	if detail == nil {
		return errors.Join(ErrInvalidRequest, kind)
	}
	return errors.Join(ErrInvalidRequest, kind, detail)
}
