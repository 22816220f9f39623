package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository stores tasks. CreateTask must replace pending tasks
// sharing a non-empty key.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
	CancelByKey(ctx context.Context, key string) (int, error)
}

type Enqueuer struct {
	repo            EnqueuerRepository
	defaultQueue    string
	defaultPriority Priority
	maxRetries      int8
	now             func() time.Time
}

type EnqueuerOption func(*Enqueuer)

func WithDefaultQueue(queue string) EnqueuerOption {
	return func(e *Enqueuer) {
		if queue != "" {
			e.defaultQueue = queue
		}
	}
}

func WithDefaultPriority(priority Priority) EnqueuerOption {
	return func(e *Enqueuer) {
		if priority.Valid() {
			e.defaultPriority = priority
		}
	}
}

// WithDefaultMaxRetries caps retries at 10.
func WithDefaultMaxRetries(n int8) EnqueuerOption {
	return func(e *Enqueuer) {
		if n >= 0 && n <= 10 {
			e.maxRetries = n
		}
	}
}

func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{
		repo:            repo,
		defaultQueue:    DefaultQueueName,
		defaultPriority: PriorityDefault,
		maxRetries:      3,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	queue       string
	priority    Priority
	maxRetries  int8
	delay       time.Duration
	scheduledAt *time.Time
	taskName    string
	key         string
}

func WithQueue(queue string) EnqueueOption {
	return func(o *enqueueOptions) {
		if queue != "" {
			o.queue = queue
		}
	}
}

func WithPriority(priority Priority) EnqueueOption {
	return func(o *enqueueOptions) { o.priority = priority }
}

func WithMaxRetries(n int8) EnqueueOption {
	return func(o *enqueueOptions) {
		if n >= 0 && n <= 10 {
			o.maxRetries = n
		}
	}
}

func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

func WithScheduledAt(at time.Time) EnqueueOption {
	return func(o *enqueueOptions) { o.scheduledAt = &at }
}

func WithTaskName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.taskName = name
		}
	}
}

// WithKey makes the task replace any pending task with the same key.
func WithKey(key string) EnqueueOption {
	return func(o *enqueueOptions) { o.key = key }
}

// Enqueue stores payload as a new task and returns it.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) (*Task, error) {
	if payload == nil {
		return nil, ErrPayloadNil
	}

	o := &enqueueOptions{
		queue:      e.defaultQueue,
		priority:   e.defaultPriority,
		maxRetries: e.maxRetries,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.priority.Valid() {
		return nil, ErrInvalidPriority
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Join(ErrPayloadMarshal, fmt.Errorf("payload of type %T: %w", payload, err))
	}

	name := o.taskName
	if name == "" {
		name = qualifiedStructName(payload)
	}

	now := e.now()
	scheduledAt := now
	switch {
	case o.scheduledAt != nil:
		scheduledAt = *o.scheduledAt
	case o.delay > 0:
		scheduledAt = now.Add(o.delay)
	}

	task := &Task{
		ID:          uuid.New(),
		Queue:       o.queue,
		TaskName:    name,
		Key:         o.key,
		Payload:     raw,
		Status:      TaskStatusPending,
		Priority:    o.priority,
		MaxRetries:  o.maxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return nil, errors.Join(ErrTaskCreate, fmt.Errorf("task %q in queue %q: %w", task.TaskName, task.Queue, err))
	}
	return task, nil
}

// Cancel drops pending tasks with the given key and reports how many.
func (e *Enqueuer) Cancel(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, nil
	}
	return e.repo.CancelByKey(ctx, key)
}
