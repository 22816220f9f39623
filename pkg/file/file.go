package file

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/emailcraft/pkg/sanitizer"
)

const (
	// MaxImageSize is the largest accepted upload.
	MaxImageSize int64 = 5 << 20
	// ImageFolder is where template images are stored.
	ImageFolder = "template-images"
)

// Upload is an incoming file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// File describes a stored object.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Path     string `json:"-"`
	MIMEType string `json:"-"`
	Size     int64  `json:"-"`
}

// Storage is a place bytes can be written to and served from.
type Storage interface {
	Save(ctx context.Context, u Upload, path string) (*File, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Uploader accepts an image upload and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, u Upload) (*File, error)
}

// DetectMIMEType prefers the declared type and sniffs the content when the
// declaration is missing or generic.
func DetectMIMEType(u Upload) string {
	declared := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	sniffed := http.DetectContentType(u.Content)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

// ValidateImage checks the upload is a non-empty image within MaxImageSize.
func ValidateImage(u Upload) error {
	if len(u.Content) == 0 {
		return ErrEmptyFile
	}
	if int64(len(u.Content)) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(u.Content), MaxImageSize)
	}
	if !strings.HasPrefix(DetectMIMEType(u), "image/") {
		return ErrNotAnImage
	}
	return nil
}

// ObjectName builds a collision-free name: "<unix ms>-<sanitized name>".
func ObjectName(filename string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), sanitizer.SanitizeFilename(path.Base(filename)))
}

// StorageUploader validates images and writes them to a Storage.
type StorageUploader struct {
	storage Storage
	folder  string
	now     func() time.Time
}

type UploaderOption func(*StorageUploader)

func WithFolder(folder string) UploaderOption {
	return func(u *StorageUploader) { u.folder = strings.Trim(folder, "/") }
}

func NewStorageUploader(s Storage, opts ...UploaderOption) *StorageUploader {
	u := &StorageUploader{storage: s, folder: ImageFolder, now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (s *StorageUploader) Upload(ctx context.Context, u Upload) (*File, error) {
	if err := ValidateImage(u); err != nil {
		return nil, err
	}
	u.ContentType = DetectMIMEType(u)

	name := ObjectName(u.Filename, s.now())
	f, err := s.storage.Save(ctx, u, path.Join(s.folder, name))
	if err != nil {
		return nil, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return f, nil
}

// cleanPath normalizes a storage key and rejects traversal.
func cleanPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return path.Clean(p), nil
}
