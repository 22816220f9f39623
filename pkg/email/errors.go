package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email configuration")
	ErrNotConfigured     = errors.New("email service not configured")
	ErrInvalidMessage    = errors.New("invalid email message")
)
