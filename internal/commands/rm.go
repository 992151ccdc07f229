package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/views"
)

func init() {
	Register(&ProgressCmd{})
	Register(&RmCmd{})
}

// taskAction resolves a task reference against a freshly loaded list and
// runs act on the view. The view is mounted on the live channel so the
// change gets announced.
func taskAction(ctx context.Context, env *Env, args []string, errOut io.Writer, act func(v *views.Tasks, id string) error) int {
	ref, err := ParseRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	conn := openChannel(ctx, env)
	defer conn.Close()

	v, err := loadTasks(ctx, env, conn)
	defer v.Unmount()
	if err != nil {
		return reportError(errOut, err)
	}

	task, err := ResolveTask(v.Snapshot().List, ref)
	if err != nil {
		return reportError(errOut, err)
	}
	if err := act(v, task.ID); err != nil {
		return reportError(errOut, err)
	}
	return exitcode.Success
}

// ProgressCmd implements the progress command.
type ProgressCmd struct{}

func (c *ProgressCmd) Name() string      { return "progress" }
func (c *ProgressCmd) Aliases() []string { return []string{"update"} }
func (c *ProgressCmd) Synopsis() string {
	return fmt.Sprintf("Add %d to a task's progress", views.ProgressStep)
}
func (c *ProgressCmd) Usage() string   { return "taskdesk progress [common flags] <ref>" }
func (c *ProgressCmd) NeedsAuth() bool { return true }

func (c *ProgressCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProgressCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	code := taskAction(ctx, env, args, errOut, func(v *views.Tasks, id string) error {
		_, err := v.Update(ctx, id)
		return err
	})
	if code != exitcode.Success {
		return code
	}
	return ok(env, out)
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskdesk rm [common flags] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	code := taskAction(ctx, env, args, errOut, func(v *views.Tasks, id string) error {
		_, err := v.Delete(ctx, id)
		return err
	})
	if code != exitcode.Success {
		return code
	}
	return ok(env, out)
}
