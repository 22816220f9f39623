package cms

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrInvalidQuery   = errors.New("invalid object query")
	ErrInvalidInput   = errors.New("invalid object input")
	ErrRequestFailed  = errors.New("object store request failed")
	ErrNotConfigured  = errors.New("object store is not configured")
	ErrUnknownBackend = errors.New("unknown object store backend")
)

// APIError carries a non-success response from the remote store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms api: status %d: %s", e.Status, e.Message)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
