package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/async"
	"github.com/dmitrymomot/emailcraft/pkg/email"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
	"github.com/dmitrymomot/emailcraft/pkg/statemachine"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/contact"
)

var (
	ErrNotSendable             = errors.New("campaign cannot be sent")
	ErrNoRecipients            = errors.New("no contacts found matching the campaign audience")
	ErrDeliveryFailed          = errors.New("no campaign emails were delivered")
	ErrSchedulingNotConfigured = errors.New("campaign scheduling is not configured")
)

// ContactSource is the part of the contact service the dispatcher reads.
type ContactSource interface {
	GetByIDs(ctx context.Context, ids []string) ([]contact.Contact, error)
	ListSubscribedWithTags(ctx context.Context, tags []string) ([]contact.Contact, error)
}

// TaskEnqueuer schedules deferred sends.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (*queue.Task, error)
	Cancel(ctx context.Context, key string) (int, error)
}

// Dispatcher runs the send, test-send and schedule workflows.
type Dispatcher struct {
	campaigns *Service
	contacts  ContactSource
	mailer    email.Sender
	enqueuer  TaskEnqueuer
	metrics   *Metrics
	machine   *statemachine.Machine[Status, Event]
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithEnqueuer(e TaskEnqueuer) DispatcherOption {
	return func(d *Dispatcher) { d.enqueuer = e }
}

func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithConfig(cfg Config) DispatcherOption {
	return func(d *Dispatcher) { d.cfg = cfg }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(campaigns *Service, contacts ContactSource, mailer email.Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		campaigns: campaigns,
		contacts:  contacts,
		mailer:    mailer,
		machine:   newStatusMachine(),
		cfg:       Config{BatchSize: 50},
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("campaign"))
	return d
}

// SendResult summarises one campaign send.
type SendResult struct {
	Success         bool     `json:"success"`
	TotalRecipients int      `json:"totalRecipients"`
	SuccessfulSends int      `json:"successfulSends"`
	FailedSends     int      `json:"failedSends"`
	Errors          []string `json:"errors"`
}

// NotSendableError lists why a campaign cannot be sent. It unwraps to
// ErrNotSendable.
type NotSendableError struct {
	Reasons []string
	err     error
}

func (e *NotSendableError) Error() string {
	return ErrNotSendable.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *NotSendableError) Unwrap() []error {
	if e.err != nil {
		return []error{ErrNotSendable, e.err}
	}
	return []error{ErrNotSendable}
}

// ValidateForSending lists the reasons c cannot be sent; empty when it can.
func ValidateForSending(c *Campaign) []string {
	var errs []string
	if strings.TrimSpace(c.Metadata.CampaignName) == "" {
		errs = append(errs, "Campaign name is required")
	}
	if c.Metadata.EmailTemplate.IsZero() {
		errs = append(errs, "Email template is required")
	}
	if c.Status() == StatusSent {
		errs = append(errs, "Campaign has already been sent")
	}
	return errs
}

// ResolveRecipients returns the contacts c goes to. Explicit contactIDs
// win over target tags; either way only subscribed contacts are kept.
// No target tags means every subscribed contact.
func (d *Dispatcher) ResolveRecipients(ctx context.Context, c *Campaign, contactIDs []string) ([]contact.Contact, error) {
	if ids := contact.NormalizeTags(contactIDs); len(ids) > 0 {
		found, err := d.contacts.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(found, func(ct contact.Contact) bool { return !ct.IsSubscribed() }), nil
	}
	return d.contacts.ListSubscribedWithTags(ctx, c.Metadata.TargetTags)
}

// Personalize fills the contact placeholders in content.
func Personalize(content string, c contact.Contact) string {
	full := c.FullName()
	if full == "" {
		full = "Valued Subscriber"
	}
	return strings.NewReplacer(
		"{{first_name}}", c.Metadata.FirstName,
		"{{last_name}}", c.Metadata.LastName,
		"{{full_name}}", full,
		"{{email}}", c.Metadata.Email,
	).Replace(content)
}

// Send delivers the campaign to its recipients in batches. The campaign is
// marked sending for the duration and sent with stats afterwards; a failed
// stats write is retried once and then only logged. When no message gets
// through, the previous status is restored and ErrDeliveryFailed is returned
// along with the result.
func (d *Dispatcher) Send(ctx context.Context, campaignID string, contactIDs []string) (*SendResult, error) {
	log := d.log.With(logger.CampaignID(campaignID))
	start := d.now()

	c, recipients, err := d.prepare(ctx, campaignID, contactIDs)
	if err != nil {
		return nil, err
	}
	tpl := c.Template()

	prev := c.Status()
	next, err := d.machine.Fire(ctx, prev, EventSend, c)
	if err != nil {
		return nil, &NotSendableError{Reasons: []string{fmt.Sprintf("Campaign in status %q cannot be sent", prev)}, err: err}
	}
	if err := d.campaigns.setStatus(ctx, c.ID, next, nil); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "campaign send started", logger.Count(len(recipients)))

	res := d.deliver(ctx, recipients, func(ct contact.Contact) email.Message {
		return email.Message{
			To:      ct.Metadata.Email,
			Subject: Personalize(tpl.Subject(), ct),
			HTML:    Personalize(tpl.HTML(), ct),
			Tag:     c.Slug,
		}
	})
	d.metrics.observe(res.SendResult, d.now().Sub(start).Seconds())

	if !res.Success {
		// Restore with a fresh context: the request may already be gone.
		rctx := context.WithoutCancel(ctx)
		if err := d.campaigns.setStatus(rctx, c.ID, prev, nil); err != nil {
			log.ErrorContext(rctx, "failed to restore campaign status", logger.Error(err))
		}
		log.WarnContext(ctx, "campaign send failed", logger.Count(res.FailedSends))
		return res.SendResult, errors.Join(ErrDeliveryFailed, res.cause)
	}

	done, err := d.machine.Fire(ctx, next, EventComplete, c)
	if err != nil {
		return res.SendResult, err
	}
	stats := Stats{Recipients: res.TotalRecipients, Delivered: res.SuccessfulSends}
	md := map[string]any{"campaign_stats": stats.metadata()}
	wctx := context.WithoutCancel(ctx)
	if err := d.campaigns.setStatus(wctx, c.ID, done, md); err != nil {
		log.WarnContext(ctx, "failed to record campaign stats, retrying", logger.Error(err))
		if err := d.campaigns.setStatus(wctx, c.ID, done, md); err != nil {
			// The messages are out; the send itself still succeeded.
			log.ErrorContext(ctx, "failed to record campaign stats", logger.Error(err))
		}
	}

	log.InfoContext(ctx, "campaign sent",
		slog.Int("delivered", res.SuccessfulSends),
		slog.Int("failed", res.FailedSends),
		logger.Duration(d.now().Sub(start)),
	)
	return res.SendResult, nil
}

// prepare loads the campaign and its audience and checks it can be sent.
func (d *Dispatcher) prepare(ctx context.Context, campaignID string, contactIDs []string) (*Campaign, []contact.Contact, error) {
	c, err := d.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if reasons := ValidateForSending(c); len(reasons) > 0 {
		return nil, nil, &NotSendableError{Reasons: reasons}
	}
	if c.Template() == nil {
		return nil, nil, &NotSendableError{Reasons: []string{"Campaign has no email template assigned"}}
	}
	recipients, err := d.ResolveRecipients(ctx, c, contactIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) == 0 {
		return nil, nil, ErrNoRecipients
	}
	return c, recipients, nil
}

type deliveryResult struct {
	*SendResult
	// cause is set when every attempt failed for the same provider-level
	// reason, such as a missing configuration.
	cause error
}

func (d *Dispatcher) deliver(ctx context.Context, recipients []contact.Contact, build func(contact.Contact) email.Message) *deliveryResult {
	res := &deliveryResult{SendResult: &SendResult{
		TotalRecipients: len(recipients),
		Errors:          []string{},
	}}
	size := d.cfg.batchSize()

	for batch := range slices.Chunk(recipients, size) {
		outcomes := async.MapWithin(ctx, d.cfg.SendTimeout, batch, func(ctx context.Context, ct contact.Contact) (string, error) {
			return d.mailer.Send(ctx, build(ct))
		})
		for i, o := range outcomes {
			if o.Err != nil {
				res.FailedSends++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", batch[i].Metadata.Email, o.Err))
				if errors.Is(o.Err, email.ErrNotConfigured) {
					res.cause = email.ErrNotConfigured
				}
				continue
			}
			res.SuccessfulSends++
		}

		// Nothing will get through without a provider.
		if res.cause != nil && res.SuccessfulSends == 0 {
			res.FailedSends = res.TotalRecipients
			break
		}
		if d.cfg.BatchDelay > 0 && res.SuccessfulSends+res.FailedSends < res.TotalRecipients {
			select {
			case <-ctx.Done():
			case <-time.After(d.cfg.BatchDelay):
			}
		}
		if ctx.Err() != nil {
			res.FailedSends = res.TotalRecipients - res.SuccessfulSends
			res.Errors = append(res.Errors, ctx.Err().Error())
			break
		}
	}

	res.Success = res.SuccessfulSends > 0
	return res
}

// TestResult reports a test send step by step.
type TestResult struct {
	Message string   `json:"message"`
	Logs    []string `json:"logs"`
}

// TestSendError carries the step log of a failed test send.
type TestSendError struct {
	Logs []string
	err  error
}

func (e *TestSendError) Error() string { return e.err.Error() }
func (e *TestSendError) Unwrap() error { return e.err }

// SendTest delivers the campaign's template to a single address with sample
// personalization and a "[TEST] " subject prefix. Campaign status and stats
// are untouched.
func (d *Dispatcher) SendTest(ctx context.Context, campaignID, to string) (*TestResult, error) {
	to = strings.TrimSpace(to)
	if err := validator.Apply(
		validator.WithMessage(validator.RequiredString("testEmail", to), "Test email address is required"),
		validator.WithMessage(validator.ValidEmail("testEmail", to), "Invalid email address format"),
	); err != nil {
		return nil, err
	}

	logs := []string{fmt.Sprintf("Loading campaign %s", campaignID)}
	fail := func(err error) (*TestResult, error) {
		logs = append(logs, "Error: "+err.Error())
		return nil, &TestSendError{Logs: logs, err: err}
	}

	c, err := d.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return fail(err)
	}
	logs = append(logs, fmt.Sprintf("Campaign found: %s", c.Metadata.CampaignName))

	tpl := c.Template()
	if tpl == nil {
		return fail(&NotSendableError{Reasons: []string{"Campaign has no email template assigned"}})
	}
	logs = append(logs, fmt.Sprintf("Using template: %s", tpl.Metadata.TemplateName))

	sample := contact.Contact{Metadata: contact.Metadata{
		Email:     to,
		FirstName: "Test",
		LastName:  "User",
	}}
	msg := email.Message{
		To:      to,
		Subject: "[TEST] " + Personalize(tpl.Subject(), sample),
		HTML:    Personalize(tpl.HTML(), sample),
		Tag:     "test",
	}
	logs = append(logs, fmt.Sprintf("Sending test email to %s", to))

	id, err := d.mailer.Send(ctx, msg)
	if err != nil {
		return fail(err)
	}
	logs = append(logs, fmt.Sprintf("Email accepted by provider, message id %s", id))
	d.log.InfoContext(ctx, "test email sent", logger.CampaignID(c.ID), logger.MessageID(id))

	return &TestResult{
		Message: fmt.Sprintf("Test email sent successfully to %s", to),
		Logs:    logs,
	}, nil
}
