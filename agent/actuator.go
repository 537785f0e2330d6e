package agent

import "github.com/rs/xid"

// An Actuator owns a set of attempt operations and queues the events they
// produce until the owning agent forwards them to its event sink.
//
// Actuators are exclusively owned by one agent and are only touched from
// that agent's cycle, so they need no locking.
type Actuator interface {
	Name() string

	// TakeEvents drains and returns the outgoing event queue.
	TakeEvents() []Event
}

// ActuatorBase provides the outgoing event queue for concrete actuators.
type ActuatorBase struct {
	name   string
	events []Event
}

// NewActuatorBase creates an ActuatorBase with the given name.
func NewActuatorBase(name string) *ActuatorBase {
	return &ActuatorBase{name: name}
}

// Name returns the actuator name.
func (a *ActuatorBase) Name() string {
	return a.name
}

// AddEvent queues an event produced by an attempt.
func (a *ActuatorBase) AddEvent(evt Event) {
	if evt.ID == "" {
		evt.ID = xid.New().String()
	}
	a.events = append(a.events, evt)
}

// TakeEvents drains and returns the queued events.
func (a *ActuatorBase) TakeEvents() []Event {
	events := a.events
	a.events = nil
	return events
}
