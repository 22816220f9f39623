package cms

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// Media is an uploaded file as the media library reports it.
type Media struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ImgixURL string `json:"imgix_url,omitempty"`
}

// UploadMedia stores a file in the bucket's media library under folder.
func (c *CosmicClient) UploadMedia(ctx context.Context, filename, contentType, folder string, content io.Reader) (*Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="media"; filename="`+escapeQuotes(filename)+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			return nil, errors.Join(ErrRequestFailed, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	if c.writeKey == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("COSMIC_WRITE_KEY is required for uploads"))
	}
	var resp struct {
		Media Media `json:"media"`
	}
	if err := c.doAuth(ctx, http.MethodPost, c.workersBucketURL("media"), mw.FormDataContentType(), &buf, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Media, nil
}

func escapeQuotes(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
