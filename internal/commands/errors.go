package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/live"
	"taskdesk/internal/service"
	"taskdesk/internal/views"
)

// NotLoggedInMessage is printed when a guarded command runs without a
// session.
const NotLoggedInMessage = "error: not logged in (run: taskdesk login)"

// reportError prints err and maps it to an exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(errOut, NotLoggedInMessage)
		return exitcode.AuthError
	case service.IsAuthError(err):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// openChannel dials the live channel for announcing changes. Without one the
// changes still go to the server; other clients just don't hear about them.
func openChannel(ctx context.Context, env *Env) live.Conn {
	if env.Live != nil {
		conn, err := env.Live(ctx)
		if err == nil {
			return conn
		}
		env.Logger.Error("live channel unavailable", "err", err)
	}
	return live.NewLoopback()
}

// loadTasks mounts a task view on ch and waits for the initial fetch.
// The caller must Unmount.
func loadTasks(ctx context.Context, env *Env, ch live.Channel) (*views.Tasks, error) {
	v := views.NewTasks(env.Service, ch, env.Logger, views.TaskOptions{SelfNotify: env.Config.SelfNotify})
	v.Mount(ctx)
	select {
	case <-v.Ready():
	case <-ctx.Done():
		return v, ctx.Err()
	}
	if err := v.Snapshot().Err; err != nil {
		return v, err
	}
	return v, nil
}

func ok(env *Env, out io.Writer) int {
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
