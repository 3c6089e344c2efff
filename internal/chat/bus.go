package chat

import (
	"sync"
)

type EventHandler func(Event)

type handlerEntry struct {
	id uint64
	fn EventHandler
}

// Bus fans events out to subscribers. Handlers run on their own goroutine,
// so they never delay the connection that produced the event.
type Bus struct {
	handlersMu sync.RWMutex
	handlers   map[EventType][]handlerEntry
	nextHID    uint64
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]handlerEntry)}
}

// Subscribe registers fn for events of type t.
func (b *Bus) Subscribe(t EventType, fn EventHandler) { _ = b.SubscribeCancelable(t, fn) }

// SubscribeCancelable registers fn and returns a function that removes it.
func (b *Bus) SubscribeCancelable(t EventType, fn EventHandler) (cancel func()) {
	b.handlersMu.Lock()
	b.nextHID++
	id := b.nextHID
	b.handlers[t] = append(b.handlers[t], handlerEntry{id: id, fn: fn})
	b.handlersMu.Unlock()

	return func() {
		b.handlersMu.Lock()
		defer b.handlersMu.Unlock()
		entries := b.handlers[t]
		filtered := make([]handlerEntry, 0, len(entries))
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(b.handlers, t)
			return
		}
		b.handlers[t] = filtered
	}
}

// Emit dispatches e asynchronously and returns immediately. A nil Bus
// drops the event.
func (b *Bus) Emit(e Event) {
	if b == nil {
		return
	}
	b.handlersMu.RLock()
	// Copy so a concurrent cancel cannot change the slice under us.
	copied := append([]handlerEntry(nil), b.handlers[e.Type()]...)
	b.handlersMu.RUnlock()
	for _, entry := range copied {
		go func(f EventHandler) {
			defer func() { _ = recover() }()
			f(e)
		}(entry.fn)
	}
}
