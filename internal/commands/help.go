package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdesk help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	switch len(args) {
	case 0:
		fmt.Fprint(out, helpText)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		for _, cmd := range DefaultRegistry.All() {
			fmt.Fprintf(out, "  %-10s %s\n", cmd.Name(), cmd.Synopsis())
		}
		return exitcode.Success
	case 1:
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		fmt.Fprintf(out, "Usage: %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(aliases, ", "))
		}
		return exitcode.Success
	default:
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
}

const helpText = `Usage:
  taskdesk                                     List tasks
  taskdesk tasks [common flags]
  taskdesk add [common flags] --name <name> [--description <text>] [--progress <n>]
               [--due <YYYY-MM-DD>] [--department <id>]
  taskdesk progress [common flags] <ref>       Add 10 to a task's progress
  taskdesk rm [common flags] <ref>
  taskdesk watch [common flags] [--count <n>]  Print live task changes
  taskdesk orgs [common flags]
  taskdesk addorg [common flags] --name <name> --type <type> --code <code>
  taskdesk updateorg [common flags] [--name <name>] [--type <type>] [--code <code>] <ref>
  taskdesk rmorg [common flags] <ref>
  taskdesk ui [common flags]                   Interactive terminal UI
  taskdesk login [common flags] --email <email> [--password <password>]
  taskdesk logout [common flags]
  taskdesk help [command]
  taskdesk version

References:
  <ref> is a number as printed by tasks/orgs, or a server id.
  Prefix with id: to force an id (id:42).

Common flags:
  --config <dir>   Override config directory
  --server <url>   Override the backend URL
  --self-notify    Show own task changes only once they come back over the live channel
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKDESK_SERVER     Backend URL (also read from .env)
  TASKDESK_PASSWORD   Password for login when --password is not given
`
