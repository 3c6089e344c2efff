package chat

import "time"

// UserEvent reports a client joining or leaving the registry.
type UserEvent struct {
	When   time.Time
	ID     string
	Name   string
	Left   bool
	Reason CloseReason // set when Left
	Err    error       // transport error behind Reason, if any
}

func (e *UserEvent) Type() EventType {
	if e.Left {
		return EventUserLeft
	}
	return EventUserJoined
}

func (e *UserEvent) Time() time.Time {
	return e.When
}
