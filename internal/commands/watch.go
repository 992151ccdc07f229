package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sync"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/live"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: it prints task events from the
// live channel until interrupted.
type WatchCmd struct {
	count int
}

// SetCount sets the number of events after which watch exits (for testing).
func (c *WatchCmd) SetCount(n int) {
	c.count = n
}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Print live task changes" }
func (c *WatchCmd) Usage() string     { return "taskdesk watch [common flags] [--count <n>]" }
func (c *WatchCmd) NeedsAuth() bool   { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.count, "count", 0, "")
	fs.IntVar(&c.count, "n", 0, "")
}

func (c *WatchCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.count < 0 {
		fmt.Fprintf(errOut, "error: invalid count: %d\n", c.count)
		return exitcode.UserError
	}
	if env.Live == nil {
		fmt.Fprintln(errOut, "error: live channel not configured")
		return exitcode.BackendError
	}

	conn, err := env.Live(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	defer conn.Close()

	var (
		mu   sync.Mutex
		seen int
	)
	enough := make(chan struct{})
	printer := func(event string) live.Handler {
		return func(payload json.RawMessage) {
			var t service.Task
			if err := json.Unmarshal(payload, &t); err != nil {
				env.Logger.Error("malformed task event", "event", event, "err", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if c.count > 0 && seen >= c.count {
				return
			}
			output.FormatEvent(out, event, t)
			seen++
			if c.count > 0 && seen == c.count {
				close(enough)
			}
		}
	}

	subs := []live.Subscription{
		conn.On(live.TaskCreated, printer(live.TaskCreated)),
		conn.On(live.TaskUpdated, printer(live.TaskUpdated)),
		conn.On(live.TaskDeleted, printer(live.TaskDeleted)),
	}
	defer func() {
		for _, sub := range subs {
			conn.Off(sub)
		}
	}()

	if !env.Config.Quiet {
		fmt.Fprintln(errOut, "watching for task changes")
	}

	select {
	case <-enough:
		return exitcode.Success
	case <-ctx.Done():
		return exitcode.Success
	case <-conn.Done():
		if s, ok := conn.(interface{ Err() error }); ok && s.Err() != nil {
			return reportError(errOut, s.Err())
		}
		fmt.Fprintln(errOut, "error: live channel closed by server")
		return exitcode.BackendError
	}
}
