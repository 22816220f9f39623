package email

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of *ses.Client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesSender struct {
	client  SESAPI
	from    string
	replyTo string
}

// NewSESSender wraps an existing SES client.
func NewSESSender(client SESAPI, from, replyTo string) Sender {
	return &sesSender{client: client, from: from, replyTo: replyTo}
}

// NewSESSenderFromConfig loads AWS credentials from the default chain.
func NewSESSenderFromConfig(ctx context.Context, cfg Config) (Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return NewSESSender(ses.NewFromConfig(awsCfg), cfg.From, cfg.ReplyTo), nil
}

func (s *sesSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	msg = msg.withDefaults(s.from)

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	if s.replyTo != "" {
		input.ReplyToAddresses = []string{s.replyTo}
	}
	if msg.Tag != "" {
		input.Tags = []types.MessageTag{{Name: aws.String("campaign"), Value: aws.String(msg.Tag)}}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}
	return aws.ToString(out.MessageId), nil
}
