package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/logging"
	"taskdesk/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd implements the ui command.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive terminal UI" }
func (c *UICmd) Usage() string     { return "taskdesk ui" }
func (c *UICmd) NeedsAuth() bool   { return false }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.UserError
	}

	// The terminal belongs to the UI from here on.
	logger, closeLog, err := logging.OpenFile(env.Config.LogPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open log: %v\n", err)
		return exitcode.UserError
	}
	defer closeLog()

	conn := openChannel(ctx, &Env{Config: env.Config, Live: env.Live, Logger: logger})
	defer conn.Close()
	go func() {
		select {
		case <-conn.Done():
			logger.Error("live channel closed")
		case <-ctx.Done():
		}
	}()

	err = tui.Run(ctx, tui.Deps{
		Service:    env.Service,
		Store:      env.Store,
		Channel:    conn,
		Logger:     logger,
		SelfNotify: env.Config.SelfNotify,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
