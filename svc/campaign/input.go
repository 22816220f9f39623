package campaign

import (
	"strings"

	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/contact"
)

// Input is the writable part of a campaign. EmailTemplate is a template id.
type Input struct {
	CampaignName   string   `json:"campaign_name"`
	EmailTemplate  string   `json:"email_template"`
	CampaignStatus string   `json:"campaign_status"`
	TargetTags     []string `json:"target_tags"`
	SendDate       string   `json:"send_date"`
	CampaignNotes  string   `json:"campaign_notes"`
	CampaignStats  *Stats   `json:"campaign_stats,omitempty"`
}

func (in *Input) Normalize() {
	in.CampaignName = strings.TrimSpace(in.CampaignName)
	in.EmailTemplate = strings.TrimSpace(in.EmailTemplate)
	in.CampaignStatus = strings.ToLower(strings.TrimSpace(in.CampaignStatus))
	in.SendDate = strings.TrimSpace(in.SendDate)
	in.CampaignNotes = strings.TrimSpace(in.CampaignNotes)
	in.TargetTags = contact.NormalizeTags(in.TargetTags)
}

func (in Input) Validate() error {
	return validator.Apply(
		validator.WithMessage(validator.RequiredString("campaign_name", in.CampaignName), "Campaign name is required"),
		validator.WithMessage(validator.RequiredString("email_template", in.EmailTemplate), "Email template is required"),
		validator.MaxLenString("campaign_name", in.CampaignName, 255),
		validator.When(in.CampaignStatus != "",
			validator.InListString("campaign_status", in.CampaignStatus, Statuses())),
		validator.When(in.SendDate != "", validator.Rule{
			Check: func() bool { _, ok := parseSendDate(in.SendDate); return ok },
			Error: validator.ValidationError{Field: "send_date", Message: "must be a date or an RFC 3339 timestamp"},
		}),
		validator.When(in.CampaignStats != nil, validator.Rule{
			Check: func() bool { return in.CampaignStats.valid() },
			Error: validator.ValidationError{Field: "campaign_stats", Message: "counts must not be negative and rates must be between 0 and 1"},
		}),
	)
}

func (s Stats) valid() bool {
	return s.Recipients >= 0 && s.Delivered >= 0 && s.Opened >= 0 && s.Clicked >= 0 &&
		s.OpenRate >= 0 && s.OpenRate <= 1 && s.ClickRate >= 0 && s.ClickRate <= 1
}

func (in Input) metadata() map[string]any {
	md := map[string]any{
		"campaign_name":  in.CampaignName,
		"email_template": in.EmailTemplate,
		"target_tags":    in.TargetTags,
		"send_date":      in.SendDate,
		"campaign_notes": in.CampaignNotes,
	}
	if in.CampaignStatus != "" {
		md["campaign_status"] = in.CampaignStatus
	}
	if in.CampaignStats != nil {
		md["campaign_stats"] = in.CampaignStats.metadata()
	}
	return md
}
