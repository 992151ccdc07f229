package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// ErrMissingCredentials is the local validation failure for an empty email
// or password.
var ErrMissingCredentials = errors.New("please enter both email and password")

// LoginState is a copy of the login form.
type LoginState struct {
	Email    string
	Password string
	// Error is the inline message shown under the form, "" when none.
	Error string
}

// Login collects credentials and exchanges them for a session token.
type Login struct {
	notifier

	svc    service.Service
	store  session.Store
	nav    router.Navigator
	logger *slog.Logger

	mu    sync.Mutex
	state LoginState
}

// NewLogin returns an empty login form. nav may be nil.
func NewLogin(svc service.Service, store session.Store, nav router.Navigator, logger *slog.Logger) *Login {
	return &Login{svc: svc, store: store, nav: nav, logger: orDiscard(logger)}
}

// SetEmail sets the email field.
func (v *Login) SetEmail(email string) {
	v.mu.Lock()
	v.state.Email = email
	v.mu.Unlock()
	v.changed()
}

// SetPassword sets the password field.
func (v *Login) SetPassword(password string) {
	v.mu.Lock()
	v.state.Password = password
	v.mu.Unlock()
	v.changed()
}

// Snapshot returns the current form.
func (v *Login) Snapshot() LoginState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Submit validates the form, logs in, stores the token and navigates to the
// organization list. On failure the inline error is set and returned.
// Concurrent submits are not serialized.
func (v *Login) Submit(ctx context.Context) error {
	v.mu.Lock()
	creds := service.Credentials{
		Email:    v.state.Email,
		Password: v.state.Password,
	}
	v.mu.Unlock()

	if creds.Email == "" || creds.Password == "" {
		v.setError(ErrMissingCredentials.Error())
		return ErrMissingCredentials
	}

	token, err := v.svc.Login(ctx, creds)
	if err != nil {
		v.logger.Error("login failed", "email", creds.Email, "err", err)
		v.setError(loginMessage(err))
		return err
	}
	if err := v.store.SetToken(token); err != nil {
		v.logger.Error("failed to store session", "err", err)
		v.setError("could not save the session")
		return fmt.Errorf("failed to store session: %w", err)
	}

	v.setError("")
	if v.nav != nil {
		v.nav.Navigate(router.Organizations)
	}
	return nil
}

func (v *Login) setError(msg string) {
	v.mu.Lock()
	v.state.Error = msg
	v.mu.Unlock()
	v.changed()
}

// loginMessage picks the inline text for a failed login: the server's own
// message when it sent a structured response, else a generic one.
func loginMessage(err error) string {
	if errors.Is(err, service.ErrNoToken) {
		return "the server did not return a session token"
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("login failed (%d)", apiErr.StatusCode)
	}
	return service.ErrUnreachable.Error()
}
