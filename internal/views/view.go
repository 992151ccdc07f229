// Package views holds the UI-agnostic state and operations behind each
// screen. The CLI and the TUI both drive these types; neither holds list
// state of its own.
//
// Every view is safe for concurrent use. Readers take a copy with Snapshot.
// OnChange, when set, is called after each state mutation, outside the
// view's lock.
package views

import (
	"log/slog"
	"sync"

	"taskdesk/internal/logging"
)

type notifier struct {
	mu       sync.Mutex
	onChange func()
}

// OnChange registers fn to be called after every state change. Passing nil
// removes it.
func (n *notifier) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *notifier) changed() {
	n.mu.Lock()
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}
