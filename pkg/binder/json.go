package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps JSON request bodies. Template HTML travels in JSON,
// so the limit is generous.
const DefaultMaxJSONSize = 4 << 20

// JSON decodes the request body into v. A missing Content-Type is treated as
// JSON; any other media type is rejected. Unknown fields are ignored.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return invalid(ErrUnsupportedMediaType, fmt.Errorf("got %q, expected application/json", ct))
			}
		}
		if r.Body == nil {
			return invalid(ErrFailedToParseJSON, errors.New("empty body"))
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return invalid(ErrFailedToParseJSON, errors.New("empty body"))
			}
			return invalid(ErrFailedToParseJSON, err)
		}
		if dec.More() {
			return invalid(ErrFailedToParseJSON, errors.New("unexpected data after JSON object"))
		}
		if dec.InputOffset() > DefaultMaxJSONSize {
			return invalid(ErrFailedToParseJSON, fmt.Errorf("body exceeds %d bytes", DefaultMaxJSONSize))
		}
		return nil
	}
}
