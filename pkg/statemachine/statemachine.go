package statemachine

import (
	"context"
	"fmt"
)

// Guard reports whether a transition may proceed.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs as part of a transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

type transition[S, E comparable] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Machine is an immutable-after-setup transition table. Register
// transitions at start-up; Fire and CanFire are safe for concurrent use
// afterwards.
type Machine[S, E comparable] struct {
	table map[S]map[E][]transition[S, E]
}

func New[S, E comparable]() *Machine[S, E] {
	return &Machine[S, E]{table: make(map[S]map[E][]transition[S, E])}
}

// TransitionOption attaches guards or actions to a transition.
type TransitionOption[S, E comparable] func(*transition[S, E])

func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) { t.guards = append(t.guards, g) }
}

func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) { t.actions = append(t.actions, a) }
}

// Allow registers event as moving each of from to the state to. Several
// transitions for the same state and event are tried in registration order;
// the first whose guards pass wins.
func (m *Machine[S, E]) Allow(event E, to S, from ...S) *Machine[S, E] {
	return m.AllowWith(event, to, from)
}

// AllowWith is Allow with guards and actions.
func (m *Machine[S, E]) AllowWith(event E, to S, from []S, opts ...TransitionOption[S, E]) *Machine[S, E] {
	t := transition[S, E]{to: to}
	for _, opt := range opts {
		opt(&t)
	}
	for _, f := range from {
		if m.table[f] == nil {
			m.table[f] = make(map[E][]transition[S, E])
		}
		m.table[f][event] = append(m.table[f][event], t)
	}
	return m
}

// Fire returns the state event leads to from current, after running the
// transition's actions.
func (m *Machine[S, E]) Fire(ctx context.Context, current S, event E, data any) (S, error) {
	t, err := m.match(ctx, current, event, data)
	if err != nil {
		return current, err
	}
	for _, action := range t.actions {
		if err := action(ctx, current, t.to, event, data); err != nil {
			return current, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.to, nil
}

// CanFire reports whether Fire would find a transition. Actions do not run.
func (m *Machine[S, E]) CanFire(ctx context.Context, current S, event E, data any) bool {
	_, err := m.match(ctx, current, event, data)
	return err == nil
}

// Events lists the events with at least one transition out of state.
func (m *Machine[S, E]) Events(state S) []E {
	out := make([]E, 0, len(m.table[state]))
	for e := range m.table[state] {
		out = append(out, e)
	}
	return out
}

func (m *Machine[S, E]) match(ctx context.Context, current S, event E, data any) (*transition[S, E], error) {
	candidates := m.table[current][event]
	if len(candidates) == 0 {
		return nil, &TransitionError{From: fmt.Sprint(current), Event: fmt.Sprint(event), err: ErrNoTransition}
	}

next:
	for i := range candidates {
		for _, g := range candidates[i].guards {
			if !g(ctx, current, event, data) {
				continue next
			}
		}
		return &candidates[i], nil
	}
	return nil, &TransitionError{From: fmt.Sprint(current), Event: fmt.Sprint(event), err: ErrTransitionRejected}
}
