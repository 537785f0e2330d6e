package agent

import (
	"time"

	"github.com/rs/xid"
)

// An Event records one state-changing attempt: either the firing of a
// scheduled action, or a domain event produced by an actuator while the
// action ran. Events are what downstream experiment analysis consumes, so
// nothing that fires may go unrecorded.
type Event struct {
	ID     string
	Agent  string
	Action string

	// Source is the registration index of the schedule that caused the
	// attempt. It is -1 for events not tied to a schedule.
	Source int

	// Due is the time the attempt was scheduled for; Fired is when it
	// actually ran.
	Due   time.Time
	Fired time.Time

	// Overshoot is Fired - Due.
	Overshoot time.Duration

	Detail map[string]any
}

// NewEvent creates an Event with a fresh ID.
func NewEvent(action string) Event {
	return Event{ID: xid.New().String(), Action: action, Source: -1}
}

// An EventSink consumes the events an agent forwards out of its actuators.
type EventSink interface {
	Record(evt Event)
}
