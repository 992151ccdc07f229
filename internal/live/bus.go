// Package live carries out-of-band task change notifications.
//
// A Channel is a named-event pub/sub: handlers subscribe to an event name and
// receive each payload as raw JSON. Emit announces an event to the other end
// of the channel; whether the emitter hears its own event back depends on the
// server (the Socket.IO backend rebroadcasts to every client, sender included).
package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Task change events.
const (
	TaskCreated = "task-created"
	TaskUpdated = "task-updated"
	TaskDeleted = "task-deleted"
)

// Handler receives one event payload. Handlers run on the channel's
// delivery goroutine and must not block for long.
type Handler func(payload json.RawMessage)

// Subscription identifies one On call so it can be released with Off.
type Subscription struct {
	ID    uuid.UUID
	Event string
}

// Channel is a bidirectional named-event connection.
type Channel interface {
	// On registers h for event.
	On(event string, h Handler) Subscription

	// Off releases a subscription. Releasing twice is a no-op.
	Off(sub Subscription)

	// Emit announces payload under event.
	Emit(ctx context.Context, event string, payload any) error
}

// Conn is a Channel with a lifetime.
type Conn interface {
	Channel

	// Done is closed once the connection stops delivering events.
	Done() <-chan struct{}

	// Close ends the connection.
	Close() error
}

type entry struct {
	id uuid.UUID
	h  Handler
}

// Bus is the in-process handler registry shared by every Channel
// implementation. Handlers for one event run in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]entry
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// On implements Channel.
func (b *Bus) On(event string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := Subscription{ID: uuid.New(), Event: event}
	b.handlers[event] = append(b.handlers[event], entry{id: sub.ID, h: h})
	return sub
}

// Off implements Channel.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[sub.Event]
	for i, e := range list {
		if e.id == sub.ID {
			b.handlers[sub.Event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.Event]) == 0 {
		delete(b.handlers, sub.Event)
	}
}

// Count returns the number of live subscriptions for event.
func (b *Bus) Count(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Dispatch delivers payload to every handler of event. Handlers are called
// outside the bus lock so they may subscribe or unsubscribe.
func (b *Bus) Dispatch(event string, payload json.RawMessage) {
	b.mu.RLock()
	list := make([]entry, len(b.handlers[event]))
	copy(list, b.handlers[event])
	b.mu.RUnlock()

	for _, e := range list {
		e.h(payload)
	}
}
