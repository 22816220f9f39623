package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
)

type sendRequest struct {
	CampaignID string   `json:"campaignId"`
	ContactIDs []string `json:"contactIds"`
}

type testRequest struct {
	CampaignID string `json:"campaignId"`
	TestEmail  string `json:"testEmail"`
}

type scheduleRequest struct {
	CampaignID       string   `json:"campaignId"`
	ScheduledDate    string   `json:"scheduledDate"`
	SelectedContacts []string `json:"selectedContacts"`
}

// scheduleLayouts are tried in order; the last two are what datetime-local
// inputs submit and are read as UTC.
var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseScheduledDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validator.NewError("scheduledDate", "Scheduled date is not a valid date")
}

func requireCampaignID(id string) error {
	return validator.Apply(
		validator.WithMessage(validator.RequiredString("campaignId", id), "Campaign ID is required"),
	)
}

func (s *server) sendCampaign(ctx handler.Context, req sendRequest) handler.Response {
	if err := requireCampaignID(req.CampaignID); err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.dispatcher.Send(ctx, req.CampaignID, req.ContactIDs)
	if err != nil {
		if res != nil && len(res.Errors) > 0 {
			return s.fail(ctx, err, handler.WithJSONDetails(map[string][]string{"errors": res.Errors}))
		}
		return s.fail(ctx, err)
	}
	return handler.JSON(res, handler.WithJSONMeta(map[string]any{
		"message": fmt.Sprintf("Campaign sent successfully to %d of %d recipients", res.SuccessfulSends, res.TotalRecipients),
	}))
}

func (s *server) testCampaign(ctx handler.Context, req testRequest) handler.Response {
	if err := requireCampaignID(req.CampaignID); err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.dispatcher.SendTest(ctx, req.CampaignID, req.TestEmail)
	if err != nil {
		var te *campaign.TestSendError
		if errors.As(err, &te) {
			return s.fail(ctx, err, handler.WithJSONDetails(map[string][]string{"logs": te.Logs}))
		}
		return s.fail(ctx, err)
	}
	return handler.JSON(res)
}

func (s *server) scheduleCampaign(ctx handler.Context, req scheduleRequest) handler.Response {
	if err := requireCampaignID(req.CampaignID); err != nil {
		return s.fail(ctx, err)
	}
	at, err := parseScheduledDate(req.ScheduledDate)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.dispatcher.Schedule(ctx, req.CampaignID, at, req.SelectedContacts)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(res, handler.WithJSONMeta(map[string]any{
		"message": fmt.Sprintf("Campaign scheduled for %s. %d recipients will be contacted.",
			res.ScheduledAt.Format(time.RFC1123), res.TotalRecipients),
	}))
}

func (s *server) pauseCampaign(ctx handler.Context, req idRequest) handler.Response {
	c, err := s.dispatcher.Pause(ctx, req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return handler.JSON(c)
}
