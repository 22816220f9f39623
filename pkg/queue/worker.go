package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/emailcraft/pkg/logger"
)

// WorkerRepository is the storage side of task execution.
type WorkerRepository interface {
	// ClaimTask locks the next due task or returns ErrNoTaskToClaim.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	// FailTask records the error, bumps the retry count and reschedules the
	// task with backoff while retries remain.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
}

type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	queues   []string
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool

	pullInterval time.Duration
	lockTimeout  time.Duration
	log          *slog.Logger
}

type WorkerOption func(*Worker)

func WithQueues(queues ...string) WorkerOption {
	return func(w *Worker) {
		if len(queues) > 0 {
			w.queues = queues
		}
	}
}

func WithPullInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pullInterval = d
		}
	}
}

// WithLockTimeout also bounds how long a single handler may run.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.lockTimeout = d
		}
	}
}

func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.sem = make(chan struct{}, n)
		}
	}
}

func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}

// WithConfig applies queue.Config.
func WithConfig(cfg Config) WorkerOption {
	return func(w *Worker) {
		WithPullInterval(cfg.PollInterval)(w)
		WithLockTimeout(cfg.LockTimeout)(w)
		WithMaxConcurrentTasks(cfg.MaxConcurrentTasks)(w)
	}
}

func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	w := &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		queues:       []string{DefaultQueueName},
		workerID:     uuid.New(),
		sem:          make(chan struct{}, 1),
		pullInterval: 5 * time.Second,
		lockTimeout:  5 * time.Minute,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With(logger.Component("queue.worker"), slog.String("worker_id", w.workerID.String()))
	return w, nil
}

func (w *Worker) RegisterHandler(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Run polls for tasks until ctx is cancelled, then waits for in-flight
// tasks. It blocks, so it fits an errgroup.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.log.InfoContext(ctx, "worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", cap(w.sem)))

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		w.dispatch(ctx)

		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "worker stopping, waiting for active tasks")
			w.wg.Wait()
			w.log.InfoContext(ctx, "worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// dispatch claims due tasks while free slots remain.
func (w *Worker) dispatch(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.sem <- struct{}{}:
		default:
			return
		}

		task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
		if err != nil {
			<-w.sem
			if !errors.Is(err, ErrNoTaskToClaim) && ctx.Err() == nil {
				w.log.ErrorContext(ctx, "failed to claim task", logger.Error(err))
			}
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			// Tasks run to completion even while the worker is shutting down.
			taskCtx := context.WithoutCancel(ctx)
			if err := w.process(taskCtx, task); err != nil && !errors.Is(err, ErrHandlerNotFound) {
				w.log.ErrorContext(taskCtx, "failed to process task", logger.TaskID(task.ID.String()), logger.Error(err))
			}
		}()
	}
}

func (w *Worker) process(ctx context.Context, task *Task) (retErr error) {
	start := time.Now()
	log := w.log.With(logger.TaskID(task.ID.String()), slog.String("task_name", task.TaskName))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "handler panicked", slog.Any("panic", r))
			retErr = w.fail(ctx, log, task, fmt.Errorf("panic in handler: %v", r), time.Since(start))
		}
	}()

	w.mu.RLock()
	h, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		// Retrying cannot help without a handler.
		log.ErrorContext(ctx, "no handler registered for task")
		if err := w.repo.FailTask(ctx, task.ID, ErrHandlerNotFound.Error()+": "+task.TaskName); err != nil {
			return err
		}
		if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
			return err
		}
		return ErrHandlerNotFound
	}

	hctx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()

	if err := h.Handle(hctx, task.Payload); err != nil {
		return w.fail(ctx, log, task, err, time.Since(start))
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	log.InfoContext(ctx, "task completed", logger.Duration(time.Since(start)))
	return nil
}

func (w *Worker) fail(ctx context.Context, log *slog.Logger, task *Task, execErr error, d time.Duration) error {
	log.ErrorContext(ctx, "task failed",
		logger.RetryCount(int(task.RetryCount)),
		slog.Int("max_retries", int(task.MaxRetries)),
		logger.Duration(d),
		logger.Error(execErr))

	if err := w.repo.FailTask(ctx, task.ID, execErr.Error()); err != nil {
		return fmt.Errorf("fail task %s: %w", task.ID, err)
	}

	// task holds the count from before this attempt.
	if task.RetryCount+1 >= task.MaxRetries {
		if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
			return fmt.Errorf("move task %s to DLQ: %w", task.ID, err)
		}
		log.WarnContext(ctx, "task moved to dead letter queue")
	}
	return nil
}
