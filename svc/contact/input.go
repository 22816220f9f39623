package contact

import (
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

// Input is the writable part of a contact.
type Input struct {
	Email              string   `json:"email"`
	FirstName          string   `json:"first_name"`
	LastName           string   `json:"last_name"`
	SubscriptionStatus string   `json:"subscription_status"`
	Tags               []string `json:"tags"`
	DateSubscribed     string   `json:"date_subscribed"`
	Notes              string   `json:"notes"`
}

// Normalize trims every field and de-duplicates tags, keeping first
// occurrence order.
func (in *Input) Normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.SubscriptionStatus = strings.ToLower(strings.TrimSpace(in.SubscriptionStatus))
	in.DateSubscribed = strings.TrimSpace(in.DateSubscribed)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Tags = NormalizeTags(in.Tags)
}

func (in Input) Validate() error {
	return validator.Apply(
		validator.WithMessage(validator.RequiredString("email", in.Email), "Email is required"),
		validator.ValidEmail("email", in.Email),
		validator.When(in.SubscriptionStatus != "",
			validator.InListString("subscription_status", in.SubscriptionStatus, Statuses())),
		validator.When(in.DateSubscribed != "", validDate("date_subscribed", in.DateSubscribed)),
	)
}

func (in Input) metadata() map[string]any {
	md := map[string]any{
		"email":      in.Email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"tags":       in.Tags,
		"notes":      in.Notes,
	}
	if in.SubscriptionStatus != "" {
		md["subscription_status"] = in.SubscriptionStatus
	}
	if in.DateSubscribed != "" {
		md["date_subscribed"] = in.DateSubscribed
	}
	return md
}

// NormalizeTags trims tags, drops empty ones and removes duplicates.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validDate(field, value string) validator.Rule {
	return validator.Rule{
		Check: func() bool {
			_, err := time.Parse(time.DateOnly, value)
			return err == nil
		},
		Error: validator.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"},
	}
}
