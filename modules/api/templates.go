package api

import (
	"net/http"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

type templateRequest struct {
	ID string `path:"id" json:"-"`
	template.Input
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generatedHTML struct {
	HTML string `json:"html"`
}

func (s *server) listTemplates(ctx handler.Context, _ struct{}) handler.Response {
	templates, total, err := s.templates.List(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(templates, handler.WithJSONMeta(map[string]any{"total": total}))
}

func (s *server) getTemplate(ctx handler.Context, req idRequest) handler.Response {
	t, err := s.templates.GetByID(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(t)
}

func (s *server) createTemplate(ctx handler.Context, req templateRequest) handler.Response {
	t, err := s.templates.Create(ctx, req.Input)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(t, handler.WithJSONStatus(http.StatusCreated))
}

func (s *server) updateTemplate(ctx handler.Context, req templateRequest) handler.Response {
	t, err := s.templates.Update(ctx, req.ID, req.Input)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(t)
}

func (s *server) deleteTemplate(ctx handler.Context, req idRequest) handler.Response {
	if err := s.templates.Delete(ctx, req.ID); err != nil {
		return s.fail(ctx, err)
	}
	return handler.Empty()
}

func (s *server) generateTemplate(ctx handler.Context, req generateRequest) handler.Response {
	html, err := s.templates.Generate(ctx, req.Prompt)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(generatedHTML{HTML: html})
}

// editTemplate rewrites the HTML the client sends; the stored template is
// left alone until the client saves it.
func (s *server) editTemplate(ctx handler.Context, req template.EditInput) handler.Response {
	html, err := s.templates.Edit(ctx, req)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(generatedHTML{HTML: html})
}
