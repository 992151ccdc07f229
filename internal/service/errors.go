package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn is returned when an authenticated operation runs
	// without a session token. No request is made.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotFound is returned when a reference matches no record.
	ErrNotFound = errors.New("not found")

	// ErrUnreachable wraps transport failures (no response at all).
	ErrUnreachable = errors.New("could not reach the server")

	// ErrNoToken is a successful login response without a token.
	ErrNoToken = errors.New("login response carried no token")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the body's "message" field, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthError reports whether err is a missing session or a rejected token.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNotLoggedIn) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
