// Package router names the client's screens and gates the authenticated ones.
package router

import (
	"sync"

	"taskdesk/internal/session"
)

// Route identifies a screen.
type Route string

const (
	Login         Route = "/login"
	Organizations Route = "/organizations"
	Tasks         Route = "/task"
)

// Navigator moves the client to another screen.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(to Route)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(to Route) { f(to) }

// RequireAuth returns target when a token is present and Login otherwise.
func RequireAuth(auth session.Auth, target Route) Route {
	if !auth.IsPresent() {
		return Login
	}
	return target
}

// Guard redirects to Login when no token is present and reports whether the
// caller may proceed. Callers must return immediately on false.
func Guard(auth session.Auth, nav Navigator) bool {
	if auth.IsPresent() {
		return true
	}
	if nav != nil {
		nav.Navigate(Login)
	}
	return false
}

// History records navigations. Safe for concurrent use.
type History struct {
	mu     sync.Mutex
	routes []Route
}

// Navigate implements Navigator.
func (h *History) Navigate(to Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, to)
}

// Current returns the latest route, or "" if none.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return ""
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns every recorded navigation in order.
func (h *History) Routes() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Route, len(h.routes))
	copy(out, h.routes)
	return out
}
