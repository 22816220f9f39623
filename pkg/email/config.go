package email

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider names a Sender implementation.
type Provider string

const (
	ProviderPostmark Provider = "postmark"
	ProviderSES      Provider = "ses"
	ProviderDev      Provider = "dev"
)

type Config struct {
	Provider             Provider `env:"EMAIL_PROVIDER" envDefault:"postmark"`
	From                 string   `env:"EMAIL_FROM" envDefault:"EmailCraft <noreply@yourdomain.com>"`
	ReplyTo              string   `env:"EMAIL_REPLY_TO"`
	PostmarkServerToken  string   `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string   `env:"POSTMARK_ACCOUNT_TOKEN"`
	SESRegion            string   `env:"SES_REGION" envDefault:"us-east-1"`
	DevDir               string   `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// New builds the Sender selected by cfg.Provider. A provider without its
// credentials yields a Sender whose every call fails with ErrNotConfigured,
// so the service still starts and the API can report the problem.
func New(ctx context.Context, cfg Config, log *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderPostmark, "":
		if cfg.PostmarkServerToken == "" {
			log.WarnContext(ctx, "postmark server token missing, email sending disabled")
			return notConfigured{}, nil
		}
		return NewPostmarkSender(cfg)
	case ProviderSES:
		return NewSESSenderFromConfig(ctx, cfg)
	case ProviderDev:
		return NewDevSender(cfg.DevDir, cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

type notConfigured struct{}

func (notConfigured) Send(context.Context, Message) (string, error) {
	return "", ErrNotConfigured
}

func (notConfigured) Configured() bool { return false }
