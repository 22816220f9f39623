package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

// MediaAPI uploads into the object store's media library.
type MediaAPI interface {
	UploadMedia(ctx context.Context, filename, contentType, folder string, content io.Reader) (*cms.Media, error)
}

// CosmicUploader validates images and stores them in the media library.
type CosmicUploader struct {
	api    MediaAPI
	folder string
	now    func() time.Time
}

func NewCosmicUploader(api MediaAPI) *CosmicUploader {
	return &CosmicUploader{api: api, folder: ImageFolder, now: time.Now}
}

func (c *CosmicUploader) Upload(ctx context.Context, u Upload) (*File, error) {
	if err := ValidateImage(u); err != nil {
		return nil, err
	}
	contentType := DetectMIMEType(u)

	m, err := c.api.UploadMedia(ctx, ObjectName(u.Filename, c.now()), contentType, c.folder, bytes.NewReader(u.Content))
	if err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}
	return &File{
		ID:       m.ID,
		Name:     m.Name,
		URL:      m.URL,
		Path:     c.folder + "/" + m.Name,
		MIMEType: contentType,
		Size:     int64(len(u.Content)),
	}, nil
}
