package campaign

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/email"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

// SendTask is the queue payload for a scheduled campaign send.
type SendTask struct {
	CampaignID string   `json:"campaign_id"`
	ContactIDs []string `json:"contact_ids,omitempty"`
}

// ScheduleResult describes an accepted schedule request.
type ScheduleResult struct {
	TotalRecipients int       `json:"totalRecipients"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	TaskID          string    `json:"taskId"`
}

func taskKey(campaignID string) string { return "campaign:" + campaignID }

// Schedule arranges for the campaign to be sent at at. Scheduling again
// replaces the pending send.
func (d *Dispatcher) Schedule(ctx context.Context, campaignID string, at time.Time, contactIDs []string) (*ScheduleResult, error) {
	if err := validator.Apply(
		validator.WithMessage(validator.RequiredTime("scheduledDate", at), "Scheduled date is required"),
		validator.WithMessage(validator.Rule{
			Check: func() bool { return at.After(d.now()) },
			Error: validator.ValidationError{Field: "scheduledDate"},
		}, "Scheduled date must be in the future"),
	); err != nil {
		return nil, err
	}
	if d.enqueuer == nil {
		return nil, ErrSchedulingNotConfigured
	}
	// Fail now rather than when the task fires.
	if !email.Configured(d.mailer) {
		return nil, email.ErrNotConfigured
	}

	c, recipients, err := d.prepare(ctx, campaignID, contactIDs)
	if err != nil {
		return nil, err
	}
	next, err := d.machine.Fire(ctx, c.Status(), EventSchedule, c)
	if err != nil {
		return nil, &NotSendableError{Reasons: []string{"Campaign in status \"" + string(c.Status()) + "\" cannot be scheduled"}, err: err}
	}

	task, err := d.enqueuer.Enqueue(ctx,
		SendTask{CampaignID: c.ID, ContactIDs: contactIDs},
		queue.WithQueue(d.queueName()),
		queue.WithScheduledAt(at.UTC()),
		queue.WithKey(taskKey(c.ID)),
	)
	if err != nil {
		return nil, err
	}
	if err := d.campaigns.setStatus(ctx, c.ID, next, map[string]any{
		"send_date": at.UTC().Format(time.RFC3339),
	}); err != nil {
		if _, cerr := d.enqueuer.Cancel(context.WithoutCancel(ctx), taskKey(c.ID)); cerr != nil {
			d.log.ErrorContext(ctx, "failed to cancel scheduled send", logger.CampaignID(c.ID), logger.Error(cerr))
		}
		return nil, err
	}

	d.log.InfoContext(ctx, "campaign scheduled",
		logger.CampaignID(c.ID),
		logger.TaskID(task.ID.String()),
		logger.Count(len(recipients)),
	)
	return &ScheduleResult{
		TotalRecipients: len(recipients),
		ScheduledAt:     at.UTC(),
		TaskID:          task.ID.String(),
	}, nil
}

// Pause takes a scheduled campaign off the queue.
func (d *Dispatcher) Pause(ctx context.Context, campaignID string) (*Campaign, error) {
	c, err := d.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	next, err := d.machine.Fire(ctx, c.Status(), EventPause, c)
	if err != nil {
		return nil, &NotSendableError{Reasons: []string{"Only scheduled campaigns can be paused"}, err: err}
	}
	if d.enqueuer != nil {
		if _, err := d.enqueuer.Cancel(ctx, taskKey(c.ID)); err != nil {
			return nil, err
		}
	}
	if err := d.campaigns.setStatus(ctx, c.ID, next, nil); err != nil {
		return nil, err
	}
	d.log.InfoContext(ctx, "campaign paused", logger.CampaignID(c.ID))
	return d.campaigns.GetByID(ctx, c.ID)
}

// TaskHandler runs scheduled sends from the queue.
func (d *Dispatcher) TaskHandler() queue.Handler {
	return queue.NewTaskHandler(d.handleSendTask)
}

// handleSendTask sends a scheduled campaign once. Only store failures are
// returned for retry; a send that ran is never repeated.
func (d *Dispatcher) handleSendTask(ctx context.Context, task SendTask) error {
	log := d.log.With(logger.CampaignID(task.CampaignID), logger.Event("scheduled_send"))

	c, err := d.campaigns.GetByID(ctx, task.CampaignID)
	switch {
	case errors.Is(err, ErrNotFound):
		log.WarnContext(ctx, "scheduled campaign no longer exists")
		return nil
	case err != nil:
		return err
	}
	if c.Status() != StatusScheduled {
		log.InfoContext(ctx, "campaign is no longer scheduled, skipping", slog.String("status", string(c.Status())))
		return nil
	}

	res, err := d.Send(ctx, task.CampaignID, task.ContactIDs)
	if err == nil {
		log.InfoContext(ctx, "scheduled campaign sent", logger.Count(res.SuccessfulSends))
		return nil
	}
	if res == nil && !errors.Is(err, ErrNotSendable) && !errors.Is(err, ErrNoRecipients) {
		return err
	}

	// The send will not be retried, so the campaign must not stay scheduled.
	log.ErrorContext(ctx, "scheduled campaign send failed", logger.Error(err))
	if err := d.campaigns.setStatus(ctx, c.ID, StatusPaused, nil); err != nil {
		log.ErrorContext(ctx, "failed to pause campaign after failed send", logger.Error(err))
	}
	return nil
}

func (d *Dispatcher) queueName() string {
	if d.cfg.Queue == "" {
		return "campaigns"
	}
	return d.cfg.Queue
}
