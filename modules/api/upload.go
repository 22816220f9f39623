package api

import (
	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/pkg/binder"
	"github.com/dmitrymomot/emailcraft/pkg/file"
)

type uploadRequest struct {
	File *binder.FileUpload `file:"file"`
}

// upload stores a template image and answers {url, name, id}.
func (s *server) upload(ctx handler.Context, req uploadRequest) handler.Response {
	if req.File == nil {
		return s.fail(ctx, file.ErrEmptyFile)
	}
	f, err := s.uploader.Upload(ctx, file.Upload{
		Filename:    req.File.Filename,
		ContentType: req.File.ContentType(),
		Content:     req.File.Content,
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(f)
}
