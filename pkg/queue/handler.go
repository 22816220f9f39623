package queue

import (
	"context"
	"encoding/json"
)

type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// NewTaskHandler names the handler after the payload type, matching the
// default task name the Enqueuer gives a payload of that type.
func NewTaskHandler[T any](handler TaskHandlerFunc[T]) Handler {
	var payload T
	return &taskHandler[T]{
		name:    qualifiedStructName(payload),
		handler: handler,
	}
}

// NewNamedTaskHandler pairs with the WithTaskName enqueue option.
func NewNamedTaskHandler[T any](name string, handler TaskHandlerFunc[T]) Handler {
	return &taskHandler[T]{name: name, handler: handler}
}

type taskHandler[T any] struct {
	name    string
	handler TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Name() string { return h.name }

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return err
	}
	return h.handler(ctx, t)
}
