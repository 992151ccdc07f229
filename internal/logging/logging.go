// Package logging builds the diagnostic logger shared by views, the REST
// client and the live channel.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger writing to w. With debug unset, only errors are
// written.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenFile returns a debug-level logger appending to path, and a close func.
// Used while the terminal belongs to the TUI.
func OpenFile(path string) (*slog.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return New(f, true), f.Close, nil
}
