package router_test

import (
	"testing"

	"taskdesk/internal/router"
	"taskdesk/internal/session"
)

func TestRequireAuth(t *testing.T) {
	if got := router.RequireAuth(session.Absent(), router.Tasks); got != router.Login {
		t.Errorf("expected %s, got %s", router.Login, got)
	}
	if got := router.RequireAuth(session.Present("T1"), router.Tasks); got != router.Tasks {
		t.Errorf("expected %s, got %s", router.Tasks, got)
	}
}

func TestGuard_Absent(t *testing.T) {
	var h router.History
	if router.Guard(session.Absent(), &h) {
		t.Fatal("guard should refuse without a token")
	}
	if h.Current() != router.Login {
		t.Errorf("expected redirect to login, got %q", h.Current())
	}
}

func TestGuard_Present(t *testing.T) {
	var h router.History
	if !router.Guard(session.Present("T1"), &h) {
		t.Fatal("guard should allow with a token")
	}
	if len(h.Routes()) != 0 {
		t.Errorf("expected no navigation, got %v", h.Routes())
	}
}

func TestGuard_NilNavigator(t *testing.T) {
	if router.Guard(session.Absent(), nil) {
		t.Error("guard should refuse without a token")
	}
}

func TestNavigatorFunc(t *testing.T) {
	var got router.Route
	nav := router.NavigatorFunc(func(to router.Route) { got = to })
	nav.Navigate(router.Organizations)
	if got != router.Organizations {
		t.Errorf("expected %s, got %s", router.Organizations, got)
	}
}
