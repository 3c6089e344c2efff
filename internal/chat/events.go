package chat

import "time"

// EventType names a kind of event on the Bus.
type EventType string

const (
	EventUserJoined  EventType = "user.joined"
	EventUserLeft    EventType = "user.left"
	EventUserRenamed EventType = "user.renamed"
	EventMessage     EventType = "message.broadcast"
)

type Event interface {
	Type() EventType
	Time() time.Time
}
