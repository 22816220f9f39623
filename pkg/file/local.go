package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files below baseDir. All paths are confined to it.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage resolves baseDir to an absolute path and creates it.
// baseURL prefixes public URLs, e.g. "/uploads/".
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStorage{baseDir: abs, baseURL: baseURL}, nil
}

// Dir is the absolute storage root, for serving files over HTTP.
func (s *LocalStorage) Dir() string { return s.baseDir }

func (s *LocalStorage) Save(ctx context.Context, u Upload, p string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, rel, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}
	if err := os.WriteFile(abs, u.Content, 0o644); err != nil {
		_ = os.Remove(abs)
		return nil, errors.Join(ErrUploadFailed, err)
	}

	return &File{
		Name:     path.Base(rel),
		URL:      s.URL(rel),
		Path:     rel,
		MIMEType: u.ContentType,
		Size:     int64(len(u.Content)),
	}, nil
}

func (s *LocalStorage) Delete(_ context.Context, p string) error {
	abs, _, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return errors.Join(ErrFailedToDelete, err)
	}
	return nil
}

func (s *LocalStorage) URL(p string) string {
	return s.baseURL + strings.TrimPrefix(p, "/")
}

func (s *LocalStorage) resolve(p string) (abs, rel string, err error) {
	rel, err = cleanPath(p)
	if err != nil {
		return "", "", err
	}
	abs = filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return abs, rel, nil
}
