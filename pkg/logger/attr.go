package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty attribute,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr { return slog.String("component", name) }
func Event(name string) slog.Attr     { return slog.String("event", name) }
func Handler(name string) slog.Attr   { return slog.String("handler", name) }

func RequestID(id string) slog.Attr  { return slog.String("request_id", id) }
func CampaignID(id string) slog.Attr { return slog.String("campaign_id", id) }
func ContactID(id string) slog.Attr  { return slog.String("contact_id", id) }
func TemplateID(id string) slog.Attr { return slog.String("template_id", id) }
func ObjectType(t string) slog.Attr  { return slog.String("object_type", t) }
func TaskID(id string) slog.Attr     { return slog.String("task_id", id) }

// Email records a recipient address under "email".
func Email(addr string) slog.Attr { return slog.String("email", addr) }

func MessageID(id string) slog.Attr      { return slog.String("message_id", id) }
func Count(n int) slog.Attr              { return slog.Int("count", n) }
func RetryCount(n int) slog.Attr         { return slog.Int("retry_count", n) }
func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }
