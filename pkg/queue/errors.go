package queue

import "errors"

var (
	ErrRepositoryNil    = errors.New("repository cannot be nil")
	ErrPayloadNil       = errors.New("payload cannot be nil")
	ErrPayloadMarshal   = errors.New("failed to marshal payload to JSON")
	ErrTaskCreate       = errors.New("failed to create task in storage")
	ErrInvalidPriority  = errors.New("priority must be between 0 and 100")
	ErrHandlerNotFound  = errors.New("no handler registered for task type")
	ErrNoHandlers       = errors.New("no task handlers registered")
	ErrNoTaskToClaim    = errors.New("no task to claim")
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotClaimed   = errors.New("task is not in processing state")
	ErrWorkerStarted    = errors.New("worker already started")
	ErrStorageOperation = errors.New("queue storage operation failed")
)
