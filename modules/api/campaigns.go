package api

import (
	"net/http"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
)

type campaignRequest struct {
	ID string `path:"id" json:"-"`
	campaign.Input
}

// patchRequest keeps the body verbatim; the campaign service validates it
// against its own schema.
type patchRequest struct {
	ID  string `path:"id"`
	Raw []byte
}

func (p *patchRequest) UnmarshalJSON(b []byte) error {
	p.Raw = append(p.Raw[:0], b...)
	return nil
}

type duplicateRequest struct {
	ID   string `path:"id" json:"-"`
	Name string `json:"name"`
}

func (s *server) listCampaigns(ctx handler.Context, _ struct{}) handler.Response {
	campaigns, total, err := s.campaigns.List(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(campaigns, handler.WithJSONMeta(map[string]any{"total": total}))
}

func (s *server) getCampaign(ctx handler.Context, req idRequest) handler.Response {
	c, err := s.campaigns.GetByID(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c)
}

func (s *server) createCampaign(ctx handler.Context, req campaignRequest) handler.Response {
	c, err := s.campaigns.Create(ctx, req.Input)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c, handler.WithJSONStatus(http.StatusCreated))
}

func (s *server) patchCampaign(ctx handler.Context, req patchRequest) handler.Response {
	c, err := s.campaigns.Patch(ctx, req.ID, req.Raw)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c)
}

func (s *server) deleteCampaign(ctx handler.Context, req idRequest) handler.Response {
	if err := s.campaigns.Delete(ctx, req.ID); err != nil {
		return s.fail(ctx, err)
	}
	return handler.Empty()
}

func (s *server) duplicateCampaign(ctx handler.Context, req duplicateRequest) handler.Response {
	c, err := s.campaigns.Duplicate(ctx, req.ID, req.Name)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c, handler.WithJSONStatus(http.StatusCreated))
}
