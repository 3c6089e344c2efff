package chat

import "time"

// MessageEvent is emitted after a chat payload has been fanned out.
type MessageEvent struct {
	When      time.Time
	ID        string
	From      string
	Content   string
	Delivered int
	Failed    int
}

func (e *MessageEvent) Type() EventType { return EventMessage }
func (e *MessageEvent) Time() time.Time { return e.When }
