package contact

import (
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

// ObjectType is the CMS type contacts are stored under.
const ObjectType = "contacts"

type Status string

const (
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
	StatusPending      Status = "pending"
)

var statusLabels = map[string]string{
	string(StatusSubscribed):   "Subscribed",
	string(StatusUnsubscribed): "Unsubscribed",
	string(StatusPending):      "Pending",
}

// Statuses lists the accepted subscription statuses.
func Statuses() []string {
	return []string{string(StatusSubscribed), string(StatusUnsubscribed), string(StatusPending)}
}

// Contact is one subscriber as stored in the CMS.
type Contact struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Metadata   Metadata  `json:"metadata"`
}

type Metadata struct {
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	SubscriptionStatus cms.Select `json:"subscription_status"`
	Tags               []string   `json:"tags"`
	// DateSubscribed is formatted as YYYY-MM-DD.
	DateSubscribed string `json:"date_subscribed,omitempty"`
	Notes          string `json:"notes"`
}

func (c Contact) Email() string { return c.Metadata.Email }

// FullName joins first and last name; empty when neither is set.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.Metadata.FirstName + " " + c.Metadata.LastName)
}

func (c Contact) IsSubscribed() bool {
	return c.Metadata.SubscriptionStatus.Key == string(StatusSubscribed)
}

func fromObject(o cms.Object) (Contact, error) {
	c := Contact{
		ID:         o.ID,
		Slug:       o.Slug,
		Title:      o.Title,
		CreatedAt:  o.CreatedAt,
		ModifiedAt: o.ModifiedAt,
	}
	if err := o.DecodeMetadata(&c.Metadata); err != nil {
		return Contact{}, err
	}
	if st := c.Metadata.SubscriptionStatus; st.Value == "" && st.Key != "" {
		c.Metadata.SubscriptionStatus = cms.NewSelect(st.Key, statusLabels)
	}
	return c, nil
}
