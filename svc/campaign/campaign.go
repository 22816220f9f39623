package campaign

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

// ObjectType is the CMS type campaigns are stored under.
const ObjectType = "campaigns"

// Relations declares the campaign fields that reference other objects. The
// CMS store resolves them at depth 1.
var Relations = cms.Relations{
	ObjectType: {"email_template": template.ObjectType},
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusPaused    Status = "paused"
)

var statusLabels = map[string]string{
	string(StatusDraft):     "Draft",
	string(StatusScheduled): "Scheduled",
	string(StatusSending):   "Sending",
	string(StatusSent):      "Sent",
	string(StatusPaused):    "Paused",
}

func Statuses() []string {
	return []string{
		string(StatusDraft),
		string(StatusScheduled),
		string(StatusSending),
		string(StatusSent),
		string(StatusPaused),
	}
}

type Campaign struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Metadata   Metadata  `json:"metadata"`
}

type Metadata struct {
	CampaignName   string      `json:"campaign_name"`
	EmailTemplate  TemplateRef `json:"email_template"`
	CampaignStatus cms.Select  `json:"campaign_status"`
	TargetTags     []string    `json:"target_tags"`
	SendDate       string      `json:"send_date,omitempty"`
	CampaignNotes  string      `json:"campaign_notes"`
	CampaignStats  Stats       `json:"campaign_stats"`
}

// Stats are the delivery figures of a campaign. Rates are fractions in
// [0, 1].
type Stats struct {
	Recipients int     `json:"recipients"`
	Delivered  int     `json:"delivered"`
	Opened     int     `json:"opened"`
	Clicked    int     `json:"clicked"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
}

func (s Stats) metadata() map[string]any {
	return map[string]any{
		"recipients": s.Recipients,
		"delivered":  s.Delivered,
		"opened":     s.Opened,
		"clicked":    s.Clicked,
		"open_rate":  s.OpenRate,
		"click_rate": s.ClickRate,
	}
}

// Status returns the campaign status, treating an unset status as draft.
func (c Campaign) Status() Status {
	if c.Metadata.CampaignStatus.Key == "" {
		return StatusDraft
	}
	return Status(c.Metadata.CampaignStatus.Key)
}

// Template returns the resolved template, or nil when the campaign was read
// without depth or the template no longer exists.
func (c Campaign) Template() *template.Template {
	return c.Metadata.EmailTemplate.Template
}

// TemplateRef is the email_template relation: an id when read at depth 0,
// the full template at depth 1.
type TemplateRef struct {
	ID       string
	Template *template.Template
}

func (r TemplateRef) IsZero() bool { return r.ID == "" && r.Template == nil }

func (r *TemplateRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = TemplateRef{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj cms.Object
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	t, err := template.FromObject(obj)
	if err != nil {
		return err
	}
	r.ID = t.ID
	r.Template = &t
	return nil
}

func (r TemplateRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.Template != nil:
		return json.Marshal(r.Template)
	case r.ID != "":
		return json.Marshal(r.ID)
	default:
		return []byte("null"), nil
	}
}

func fromObject(o cms.Object) (Campaign, error) {
	c := Campaign{
		ID:         o.ID,
		Slug:       o.Slug,
		Title:      o.Title,
		CreatedAt:  o.CreatedAt,
		ModifiedAt: o.ModifiedAt,
	}
	if err := o.DecodeMetadata(&c.Metadata); err != nil {
		return Campaign{}, err
	}
	if st := c.Metadata.CampaignStatus; st.Value == "" && st.Key != "" {
		c.Metadata.CampaignStatus = cms.NewSelect(st.Key, statusLabels)
	}
	return c, nil
}

// parseSendDate accepts RFC 3339 timestamps and plain dates.
func parseSendDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
