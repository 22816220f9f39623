package queue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations holds the goose migrations for PostgresStorage.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// PostgresStorage keeps tasks in Postgres. Claims use FOR UPDATE SKIP LOCKED
// so any number of workers can share the table.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if task.Key != "" {
			if _, err := tx.Exec(ctx,
				`DELETE FROM queue_tasks WHERE task_key = $1 AND status = 'pending'`, task.Key,
			); err != nil {
				return errors.Join(ErrStorageOperation, err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO queue_tasks
				(id, queue, task_name, task_key, payload, status, priority, retry_count, max_retries, scheduled_at, created_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)`,
			task.ID, task.Queue, task.TaskName, task.Key, task.Payload, string(task.Status),
			int16(task.Priority), int16(task.RetryCount), int16(task.MaxRetries), task.ScheduledAt, task.CreatedAt,
		)
		if err != nil {
			return errors.Join(ErrStorageOperation, err)
		}
		return nil
	})
}

func (s *PostgresStorage) CancelByKey(ctx context.Context, key string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM queue_tasks WHERE task_key = $1 AND status = 'pending'`, key)
	if err != nil {
		return 0, errors.Join(ErrStorageOperation, err)
	}
	return int(tag.RowsAffected()), nil
}

const claimQuery = `
	UPDATE queue_tasks SET
		status = 'processing',
		locked_until = now() + $3::interval,
		locked_by = $1
	WHERE id = (
		SELECT id FROM queue_tasks
		WHERE queue = ANY($2)
		  AND scheduled_at <= now()
		  AND (status = 'pending' OR (status = 'processing' AND locked_until < now()))
		ORDER BY priority DESC, scheduled_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, queue, task_name, COALESCE(task_key, ''), payload, status, priority,
		retry_count, max_retries, scheduled_at, locked_until, locked_by, processed_at, error, created_at`

func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.pool.QueryRow(ctx, claimQuery, workerID, queues, lockDuration)

	var (
		t                       Task
		status                  string
		priority, retries, maxR int16
	)
	err := row.Scan(&t.ID, &t.Queue, &t.TaskName, &t.Key, &t.Payload, &status, &priority,
		&retries, &maxR, &t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.ProcessedAt, &t.Error, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTaskToClaim
	}
	if err != nil {
		return nil, errors.Join(ErrStorageOperation, err)
	}
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)
	t.RetryCount = int8(retries)
	t.MaxRetries = int8(maxR)
	return &t, nil
}

func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return errors.Join(ErrStorageOperation, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotClaimed, taskID)
	}
	return nil
}

func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks SET
			retry_count = retry_count + 1,
			error = $2,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
				ELSE now() + make_interval(secs => (retry_count + 1) * $3) END
		WHERE id = $1 AND status = 'processing'`,
		taskID, errorMsg, int(retryBackoff(1).Seconds()))
	if err != nil {
		return errors.Join(ErrStorageOperation, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotClaimed, taskID)
	}
	return nil
}

func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO queue_tasks_dlq (id, task_id, queue, task_name, task_key, payload, priority, error, retry_count, failed_at)
			SELECT $2, id, queue, task_name, task_key, payload, priority, COALESCE(error, ''), retry_count, now()
			FROM queue_tasks WHERE id = $1`, taskID, uuid.New())
		if err != nil {
			return errors.Join(ErrStorageOperation, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1`, taskID); err != nil {
			return errors.Join(ErrStorageOperation, err)
		}
		return nil
	})
}
