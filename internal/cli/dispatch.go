// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/logging"
	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error)

// StoreFactory returns the session store for cfg.
type StoreFactory func(cfg *config.Config) session.Store

// LiveFactory returns the live channel dialer for cfg.
type LiveFactory func(cfg *config.Config, logger *slog.Logger) commands.LiveDialer

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStore replaces the token file store.
func WithStore(f StoreFactory) Option {
	return func(d *Dispatcher) { d.store = f }
}

// WithLive sets how the live channel is dialed. Without it, commands that
// announce changes fall back to a local channel and watch is unavailable.
func WithLive(f LiveFactory) Option {
	return func(d *Dispatcher) { d.live = f }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	store    StoreFactory
	live     LiveFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
		store: func(cfg *config.Config) session.Store {
			return session.NewFileStore(cfg.TokenPath())
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> the task list
	if len(args) == 0 {
		return d.dispatch(ctx, "tasks", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir  string
	server     string
	selfNotify bool
	quiet      bool
	debug      bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "")
	fs.StringVar(&f.server, "server", "", "")
	fs.BoolVar(&f.selfNotify, "self-notify", false, "")
	fs.BoolVar(&f.quiet, "quiet", false, "")
	fs.BoolVar(&f.debug, "debug", false, "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leftover leading dash means a flag after "--" or a lone "-x" value
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if common.server != "" {
		cfg.Server = common.server
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
	}
	if common.selfNotify {
		cfg.SelfNotify = true
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug

	logger := logging.Discard()
	if cfg.Debug {
		logger = logging.New(errOut, true)
	}

	store := d.store(cfg)
	auth, err := store.Load()
	if err != nil {
		if cmd.NeedsAuth() {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return exitcode.AuthError
		}
		logger.Error("ignoring unreadable session", "err", err)
		auth = session.Absent()
	}

	// Route guard: list screens need a session
	if cmd.NeedsAuth() && router.RequireAuth(auth, router.Organizations) == router.Login {
		fmt.Fprintln(errOut, commands.NotLoggedInMessage)
		return exitcode.AuthError
	}

	env := &commands.Env{
		Config: cfg,
		Store:  store,
		Auth:   auth,
		Logger: logger,
	}
	if d.factory != nil {
		env.Service, err = d.factory(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}
	if d.live != nil {
		env.Live = d.live(cfg, logger)
	}

	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		return "flag needs an argument: " + strings.TrimSpace(strings.TrimPrefix(msg, "flag needs an argument:"))
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		return "unknown flag: " + strings.TrimSpace(strings.TrimPrefix(msg, "flag provided but not defined:"))
	default:
		return msg
	}
}
