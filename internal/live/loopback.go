package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Emitted is one event sent through a Loopback.
type Emitted struct {
	Event   string
	Payload json.RawMessage
}

// Loopback is an in-process Channel whose Emit is delivered straight back to
// its own handlers, the way the backend rebroadcasts to every client.
// Used when no server is involved (tests, offline runs).
type Loopback struct {
	*Bus

	mu      sync.Mutex
	emitted []Emitted
	// Err, when set, is returned by Emit instead of delivering.
	Err error

	done      chan struct{}
	closeOnce sync.Once
}

// NewLoopback returns an empty loopback channel.
func NewLoopback() *Loopback {
	return &Loopback{Bus: NewBus(), done: make(chan struct{})}
}

// Done implements Conn.
func (l *Loopback) Done() <-chan struct{} { return l.done }

// Close implements Conn. Emit fails with ErrClosed afterwards.
func (l *Loopback) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}

// Emit implements Channel. Delivery is synchronous.
func (l *Loopback) Emit(ctx context.Context, event string, payload any) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	if l.Err != nil {
		err := l.Err
		l.mu.Unlock()
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	l.emitted = append(l.emitted, Emitted{Event: event, Payload: data})
	l.mu.Unlock()

	l.Dispatch(event, data)
	return nil
}

// Inject delivers an event as if it came from another client. Nothing is
// recorded as emitted.
func (l *Loopback) Inject(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	l.Dispatch(event, data)
	return nil
}

// Emitted returns every event emitted so far, in order.
func (l *Loopback) Emitted() []Emitted {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Emitted, len(l.emitted))
	copy(out, l.emitted)
	return out
}
