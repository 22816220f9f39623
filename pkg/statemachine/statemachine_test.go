package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/statemachine"
)

type state string
type event string

const (
	draft     state = "draft"
	scheduled state = "scheduled"
	sending   state = "sending"
	sent      state = "sent"

	schedule event = "schedule"
	send     event = "send"
	complete event = "complete"
)

func newMachine() *statemachine.Machine[state, event] {
	return statemachine.New[state, event]().
		Allow(schedule, scheduled, draft).
		Allow(send, sending, draft, scheduled).
		Allow(complete, sent, sending)
}

func TestFire(t *testing.T) {
	t.Parallel()

	m := newMachine()
	ctx := context.Background()

	next, err := m.Fire(ctx, draft, send, nil)
	require.NoError(t, err)
	assert.Equal(t, sending, next)

	next, err = m.Fire(ctx, next, complete, nil)
	require.NoError(t, err)
	assert.Equal(t, sent, next)

	next, err = m.Fire(ctx, sent, send, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, statemachine.ErrNoTransition)
	assert.Equal(t, sent, next)

	var te *statemachine.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "sent", te.From)
	assert.Equal(t, "send", te.Event)
}

func TestGuardsAndActions(t *testing.T) {
	t.Parallel()

	var ran []state
	m := statemachine.New[state, event]().
		AllowWith(send, sending, []state{draft},
			statemachine.WithGuard(func(_ context.Context, _ state, _ event, data any) bool {
				n, _ := data.(int)
				return n > 0
			}),
			statemachine.WithAction(func(_ context.Context, from, to state, _ event, _ any) error {
				ran = append(ran, from, to)
				return nil
			}),
		)
	ctx := context.Background()

	assert.False(t, m.CanFire(ctx, draft, send, 0))
	_, err := m.Fire(ctx, draft, send, 0)
	assert.ErrorIs(t, err, statemachine.ErrTransitionRejected)
	assert.Empty(t, ran)

	assert.True(t, m.CanFire(ctx, draft, send, 3))
	next, err := m.Fire(ctx, draft, send, 3)
	require.NoError(t, err)
	assert.Equal(t, sending, next)
	assert.Equal(t, []state{draft, sending}, ran)
}

func TestActionErrorAbortsTransition(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := statemachine.New[state, event]().
		AllowWith(complete, sent, []state{sending},
			statemachine.WithAction(func(context.Context, state, state, event, any) error { return boom }),
		)

	next, err := m.Fire(context.Background(), sending, complete, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, sending, next)
}

func TestEvents(t *testing.T) {
	t.Parallel()
	assert.ElementsMatch(t, []event{schedule, send}, newMachine().Events(draft))
	assert.Empty(t, newMachine().Events(sent))
}
