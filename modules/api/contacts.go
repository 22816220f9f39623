package api

import (
	"net/http"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/svc/contact"
)

type contactRequest struct {
	ID string `path:"id" json:"-"`
	contact.Input
}

func (s *server) listContacts(ctx handler.Context, _ struct{}) handler.Response {
	contacts, total, err := s.contacts.List(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(contacts, handler.WithJSONMeta(map[string]any{"total": total}))
}

func (s *server) getContact(ctx handler.Context, req idRequest) handler.Response {
	c, err := s.contacts.GetByID(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c)
}

func (s *server) createContact(ctx handler.Context, req contactRequest) handler.Response {
	c, err := s.contacts.Create(ctx, req.Input)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c, handler.WithJSONStatus(http.StatusCreated))
}

func (s *server) updateContact(ctx handler.Context, req contactRequest) handler.Response {
	c, err := s.contacts.Update(ctx, req.ID, req.Input)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c)
}

func (s *server) deleteContact(ctx handler.Context, req idRequest) handler.Response {
	if err := s.contacts.Delete(ctx, req.ID); err != nil {
		return s.fail(ctx, err)
	}
	return handler.Empty()
}
