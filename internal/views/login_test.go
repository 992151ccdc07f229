package views_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/testutil"
	"taskdesk/internal/views"
)

func newLogin(svc service.Service) (*views.Login, *session.MemoryStore, *router.History) {
	store := session.NewMemoryStore("")
	hist := &router.History{}
	return views.NewLogin(svc, store, hist, nil), store, hist
}

func TestLogin_EmptyFieldsMakeNoRequest(t *testing.T) {
	tests := []struct {
		name, email, password string
	}{
		{"both empty", "", ""},
		{"no password", "a@b.c", ""},
		{"no email", "", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			v, store, hist := newLogin(svc)
			v.SetEmail(tt.email)
			v.SetPassword(tt.password)

			err := v.Submit(context.Background())
			if !errors.Is(err, views.ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
			if svc.TotalCalls() != 0 {
				t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
			}
			if got := v.Snapshot().Error; got != "please enter both email and password" {
				t.Errorf("unexpected error message %q", got)
			}
			if auth, _ := store.Load(); auth.IsPresent() {
				t.Error("expected no token")
			}
			if hist.Current() != "" {
				t.Errorf("expected no navigation, got %s", hist.Current())
			}
		})
	}
}

func TestLogin_SuccessStoresTokenAndNavigates(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Token = "T1"
	v, store, hist := newLogin(svc)
	v.SetEmail("ana@example.com")
	v.SetPassword("pw")

	if err := v.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	auth, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok, _ := auth.Token(); tok != "T1" {
		t.Errorf("expected token T1, got %q", tok)
	}
	if hist.Current() != router.Organizations {
		t.Errorf("expected navigation to %s, got %s", router.Organizations, hist.Current())
	}
	if svc.LastCredentials != (service.Credentials{Email: "ana@example.com", Password: "pw"}) {
		t.Errorf("unexpected credentials %+v", svc.LastCredentials)
	}
	if v.Snapshot().Error != "" {
		t.Errorf("expected no error, got %q", v.Snapshot().Error)
	}
}

func TestLogin_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message",
			err:  &service.APIError{StatusCode: http.StatusUnauthorized, Message: "bad credentials"},
			want: "bad credentials",
		},
		{
			name: "structured response without message",
			err:  &service.APIError{StatusCode: http.StatusBadRequest},
			want: "login failed (400)",
		},
		{
			name: "response without token",
			err:  service.ErrNoToken,
			want: "the server did not return a session token",
		},
		{
			name: "unreachable",
			err:  fmt.Errorf("%w: dial tcp: connection refused", service.ErrUnreachable),
			want: "could not reach the server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.LoginErr = tt.err
			v, store, hist := newLogin(svc)
			v.SetEmail("a@b.c")
			v.SetPassword("pw")

			if err := v.Submit(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if got := v.Snapshot().Error; got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if auth, _ := store.Load(); auth.IsPresent() {
				t.Error("expected no token after failure")
			}
			if len(hist.Routes()) != 0 {
				t.Errorf("expected no navigation, got %v", hist.Routes())
			}
		})
	}
}

func TestLogin_SuccessReplacesPriorToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Token = "new"
	store := session.NewMemoryStore("old")
	v := views.NewLogin(svc, store, nil, nil)
	v.SetEmail("a@b.c")
	v.SetPassword("pw")

	if err := v.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	auth, _ := store.Load()
	if tok, _ := auth.Token(); tok != "new" {
		t.Errorf("expected token new, got %q", tok)
	}
}

func TestLogin_OnChange(t *testing.T) {
	v, _, _ := newLogin(testutil.NewFakeService())
	calls := 0
	v.OnChange(func() { calls++ })
	v.SetEmail("a")
	v.SetPassword("b")
	if calls != 2 {
		t.Errorf("expected 2 change notifications, got %d", calls)
	}
}

func TestLogin_SendsFieldsAsEntered(t *testing.T) {
	svc := testutil.NewFakeService()
	v, _, _ := newLogin(svc)
	v.SetEmail(" ana@example.com ")
	v.SetPassword("   ")

	if err := v.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := svc.LastCredentials; got.Email != " ana@example.com " || got.Password != "   " {
		t.Errorf("expected credentials as entered, got %+v", got)
	}
}
