package binder

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"reflect"
	"strings"
)

// DefaultMaxMemory bounds the in-memory part of multipart parsing; larger
// parts spill to temporary files.
const DefaultMaxMemory = 10 << 20

// FileUpload is one uploaded multipart file held in memory.
type FileUpload struct {
	Filename string
	Size     int64
	Header   textproto.MIMEHeader
	Content  []byte
}

// ContentType prefers the part's Content-Type header and falls back to the
// file extension.
func (f *FileUpload) ContentType() string {
	if ct := f.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	return mime.TypeByExtension(filepath.Ext(f.Filename))
}

// File binds `file:"name"` fields of type FileUpload or *FileUpload from a
// multipart/form-data body. Files above maxSize bytes are rejected with
// ErrFileTooLarge; maxSize <= 0 disables the check.
func File(maxSize int64) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			return invalid(ErrFailedToParseForm, errors.New("expected multipart/form-data"))
		}
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return invalid(ErrFailedToParseForm, err)
			}
		}

		err := eachTagged(v, "file", func(field reflect.Value, name string) error {
			headers := r.MultipartForm.File[name]
			if len(headers) == 0 {
				return nil
			}
			if maxSize > 0 && headers[0].Size > maxSize {
				return ErrFileTooLarge
			}
			upload, err := readFileHeader(headers[0])
			if err != nil {
				return err
			}

			switch field.Type() {
			case reflect.TypeFor[FileUpload]():
				field.Set(reflect.ValueOf(*upload))
			case reflect.TypeFor[*FileUpload]():
				field.Set(reflect.ValueOf(upload))
			default:
				return fmt.Errorf("unsupported type for file field: %s", field.Type())
			}
			return nil
		})
		if errors.Is(err, ErrFileTooLarge) {
			return invalid(ErrFileTooLarge, nil)
		}
		if err != nil {
			return invalid(ErrFailedToParseForm, err)
		}
		return nil
	}
}

func readFileHeader(fh *multipart.FileHeader) (*FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &FileUpload{
		Filename: filepath.Base(fh.Filename),
		Size:     int64(len(content)),
		Header:   fh.Header,
		Content:  content,
	}, nil
}
