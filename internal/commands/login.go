package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/views"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

// SetCredentials sets the email and password flags (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session token" }
func (c *LoginCmd) Usage() string {
	return "taskdesk login [common flags] --email <email> [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	password := c.password
	if password == "" {
		password = os.Getenv(config.PasswordEnv)
	}

	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	nav := router.NavigatorFunc(func(to router.Route) {
		env.Logger.Debug("login navigates", "to", to)
	})
	v := views.NewLogin(env.Service, env.Store, nav, env.Logger)
	v.SetEmail(c.email)
	v.SetPassword(password)

	if err := v.Submit(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", v.Snapshot().Error)
		var apiErr *service.APIError
		switch {
		case errors.Is(err, views.ErrMissingCredentials):
			return exitcode.UserError
		case errors.As(err, &apiErr):
			return exitcode.AuthError
		default:
			return exitcode.BackendError
		}
	}

	return ok(env, out)
}
