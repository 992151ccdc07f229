package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/live"
	"taskdesk/internal/output"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command. It also handles `taskdesk` with no
// arguments.
type TasksCmd struct{}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"list"} }
func (c *TasksCmd) Synopsis() string  { return "List tasks" }
func (c *TasksCmd) Usage() string     { return "taskdesk tasks [common flags]" }
func (c *TasksCmd) NeedsAuth() bool   { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// Listing never announces anything, so a local channel is enough.
	v, err := loadTasks(ctx, env, live.NewLoopback())
	defer v.Unmount()
	if err != nil {
		return reportError(errOut, err)
	}

	list := v.Snapshot().List
	for i, task := range list {
		output.FormatTask(out, i+1, task)
	}
	if len(list) == 0 && !env.Config.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
