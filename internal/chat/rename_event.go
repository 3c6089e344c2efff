package chat

import "time"

type RenameEvent struct {
	When time.Time
	ID   string
	From string
	To   string
}

func (e *RenameEvent) Type() EventType { return EventUserRenamed }
func (e *RenameEvent) Time() time.Time { return e.When }
