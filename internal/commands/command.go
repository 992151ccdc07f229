// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"

	"taskdesk/internal/config"
	"taskdesk/internal/live"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// LiveDialer opens the live task channel.
type LiveDialer func(ctx context.Context) (live.Conn, error)

// Env is what the dispatcher hands to a command.
type Env struct {
	// Config is always provided (config dir, paths, server).
	Config *config.Config

	// Service talks to the backend.
	Service service.Service

	// Store holds the session token. Auth is its state when the command
	// started; for commands with NeedsAuth it is always present.
	Store session.Store
	Auth  session.Auth

	// Live opens the live channel. May be nil.
	Live LiveDialer

	// Logger is the diagnostic channel. Never nil.
	Logger *slog.Logger
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command sits behind the route guard.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}
