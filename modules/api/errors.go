package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/pkg/ai"
	"github.com/dmitrymomot/emailcraft/pkg/email"
	"github.com/dmitrymomot/emailcraft/pkg/file"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/dashboard"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

const msgEmailNotConfigured = "Email service not configured. Please set the email provider credentials in the environment."

var (
	errContactNotFound  = handler.ErrNotFound.WithMessage("Contact not found")
	errTemplateNotFound = handler.ErrNotFound.WithMessage("Template not found")
	errCampaignNotFound = handler.ErrNotFound.WithMessage("Campaign not found")
)

// fail maps a service error onto its HTTP form, logs it and renders the
// error envelope. opts may add details.
func (s *server) fail(ctx handler.Context, err error, opts ...handler.JSONOption) handler.Response {
	mapped := httpError(err)
	status, _ := handler.ErrorToDetail(mapped)
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	r := ctx.Request()
	s.log.LogAttrs(ctx, level, "api request failed",
		logger.Error(err),
		slog.Int("status_code", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("api"),
	)
	var ns *campaign.NotSendableError
	if errors.As(err, &ns) {
		opts = append([]handler.JSONOption{handler.WithJSONDetails(map[string][]string{"campaign": ns.Reasons})}, opts...)
	}
	return handler.JSONError(mapped, opts...)
}

func httpError(err error) error {
	if validator.IsValidationError(err) {
		return err
	}
	switch {
	case errors.Is(err, contact.ErrNotFound):
		return errContactNotFound
	case errors.Is(err, template.ErrNotFound):
		return errTemplateNotFound
	case errors.Is(err, campaign.ErrNotFound):
		return errCampaignNotFound
	case errors.Is(err, campaign.ErrInvalidPatch):
		return handler.ErrBadRequest.WithMessage("Invalid campaign update")
	case errors.Is(err, campaign.ErrNotSendable):
		return handler.ErrBadRequest.WithMessage("Campaign cannot be sent")
	case errors.Is(err, campaign.ErrNoRecipients):
		return handler.ErrBadRequest.WithMessage("No contacts found to send to")
	case errors.Is(err, email.ErrNotConfigured):
		return handler.ErrInternal.WithMessage(msgEmailNotConfigured)
	case errors.Is(err, email.ErrInvalidMessage):
		return handler.ErrBadRequest.WithMessage(err.Error())
	case errors.Is(err, campaign.ErrDeliveryFailed):
		return handler.ErrInternal.WithMessage("Failed to send campaign")
	case errors.Is(err, campaign.ErrSchedulingNotConfigured):
		return handler.ErrServiceNotAvailable.WithMessage("Campaign scheduling is not configured")
	case errors.Is(err, ai.ErrNotConfigured):
		return handler.ErrServiceNotAvailable.WithMessage("AI generation is not configured")
	case errors.Is(err, template.ErrGenerationFailed), errors.Is(err, ai.ErrEmptyResponse):
		return handler.ErrInternal.WithMessage("Failed to generate email template")
	case errors.Is(err, file.ErrEmptyFile):
		return handler.ErrBadRequest.WithMessage("No file provided")
	case errors.Is(err, file.ErrNotAnImage):
		return handler.ErrBadRequest.WithMessage("Only image files are allowed")
	case errors.Is(err, file.ErrFileTooLarge):
		return handler.ErrBadRequest.WithMessage("File size must be less than 5MB")
	case errors.Is(err, file.ErrUploadFailed):
		return handler.ErrInternal.WithMessage("Failed to upload file")
	case errors.Is(err, dashboard.ErrStatsUnavailable):
		return handler.ErrInternal.WithMessage("Failed to load dashboard stats")
	}
	return err
}
