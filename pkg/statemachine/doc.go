// Package statemachine declares finite state transition tables.
//
// A Machine holds transitions only; the current state lives with the caller
// (for example in a stored record), so one Machine value can be shared by
// every request:
//
//	m := statemachine.New[Status, Event]().
//		Allow(Send, Sending, Draft, Scheduled, Paused).
//		Allow(Complete, Sent, Sending)
//
//	next, err := m.Fire(ctx, current, Send, nil)
//
// Guards may veto a transition and actions run before the new state is
// returned; an action error aborts the transition.
package statemachine
