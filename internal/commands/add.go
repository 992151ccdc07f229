package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/service"
	"taskdesk/internal/views"
)

// dueDateLayout is the date format the task form accepts.
const dueDateLayout = "2006-01-02"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	name        string
	description string
	progress    float64
	due         string
	department  string
}

// SetFields sets the task fields (for testing).
func (c *AddCmd) SetFields(fields service.TaskFields) {
	c.name = fields.Name
	c.description = fields.Description
	c.progress = fields.Progress
	c.due = fields.DueDate
	c.department = fields.DepartmentID
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskdesk add [common flags] --name <name> [--description <text>] [--progress <n>] [--due <YYYY-MM-DD>] [--department <id>] [name...]"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.Float64Var(&c.progress, "progress", 0, "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.department, "department", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	// Positional words form the name when --name is absent
	name := c.name
	if blank(name) {
		name = strings.Join(args, " ")
	} else if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if blank(name) {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}

	due := strings.TrimSpace(c.due)
	if due != "" {
		if _, err := time.Parse(dueDateLayout, due); err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s (want YYYY-MM-DD)\n", c.due)
			return exitcode.UserError
		}
	}

	conn := openChannel(ctx, env)
	defer conn.Close()

	v := views.NewTasks(env.Service, conn, env.Logger, views.TaskOptions{SelfNotify: env.Config.SelfNotify})
	_, err := v.Create(ctx, service.TaskFields{
		Name:         name,
		Description:  c.description,
		Progress:     c.progress,
		DueDate:      due,
		DepartmentID: c.department,
	})
	if err != nil {
		return reportError(errOut, err)
	}
	return ok(env, out)
}
