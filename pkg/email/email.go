package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "EmailCraft <noreply@yourdomain.com>"

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Sender delivers one message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Message is one outbound email. From falls back to the sender's configured
// address.
type Message struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
	Tag     string `json:"tag,omitempty"`
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	switch {
	case !emailRegex.MatchString(strings.TrimSpace(m.To)):
		return fmt.Errorf("%w: recipient %q is not a valid email address", ErrInvalidMessage, m.To)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

func (m Message) withDefaults(from string) Message {
	if m.From == "" {
		m.From = from
	}
	if m.From == "" {
		m.From = DefaultFrom
	}
	m.To = strings.TrimSpace(m.To)
	return m
}

// Configured reports whether s can deliver anything. Senders that may be
// built without credentials report it through a Configured method; any
// other non-nil Sender is taken as ready.
func Configured(s Sender) bool {
	if c, ok := s.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return s != nil
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) (string, error)

func (f SenderFunc) Send(ctx context.Context, msg Message) (string, error) {
	return f(ctx, msg)
}
