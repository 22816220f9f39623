package campaign

import "github.com/dmitrymomot/emailcraft/pkg/statemachine"

type Event string

const (
	EventSchedule Event = "schedule"
	EventSend     Event = "send"
	EventComplete Event = "complete"
	EventPause    Event = "pause"
)

// newStatusMachine wires the campaign lifecycle:
//
//	draft|paused|scheduled --schedule--> scheduled
//	draft|paused|scheduled --send------> sending --complete--> sent
//	scheduled --pause--> paused
func newStatusMachine() *statemachine.Machine[Status, Event] {
	return statemachine.New[Status, Event]().
		Allow(EventSchedule, StatusScheduled, StatusDraft, StatusPaused, StatusScheduled).
		Allow(EventSend, StatusSending, StatusDraft, StatusPaused, StatusScheduled).
		Allow(EventComplete, StatusSent, StatusSending).
		Allow(EventPause, StatusPaused, StatusScheduled)
}
