// Package session holds the bearer token that proves who the user is.
//
// The token is opaque: there is no expiry check and no server-side
// validation. Presence alone gates access to authenticated operations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Auth is the session state passed explicitly to authenticated operations.
// The zero value is Absent.
type Auth struct {
	token string
}

// Absent returns the state with no token.
func Absent() Auth { return Auth{} }

// Present returns the state holding token. A blank token is Absent.
func Present(token string) Auth {
	return Auth{token: strings.TrimSpace(token)}
}

// Token returns the token and whether one is present.
func (a Auth) Token() (string, bool) {
	return a.token, a.token != ""
}

// IsPresent reports whether a token is held.
func (a Auth) IsPresent() bool { return a.token != "" }

// TokenSource returns a static bearer source for the held token.
// Returns nil when absent.
func (a Auth) TokenSource() oauth2.TokenSource {
	if !a.IsPresent() {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: a.token,
		TokenType:   "Bearer",
	})
}

// String never reveals the token.
func (a Auth) String() string {
	if a.IsPresent() {
		return "present"
	}
	return "absent"
}

// Store persists the single session token.
type Store interface {
	// Load returns the current state; Absent if nothing is stored.
	Load() (Auth, error)

	// SetToken replaces any prior token with value.
	SetToken(value string) error

	// Clear removes the stored token. Clearing an absent token is not an error.
	Clear() error
}

// FileStore keeps the token in a JSON file (an oauth2.Token document) with
// mode 0600, so it survives restarts.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load() (Auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Absent(), nil
	}
	if err != nil {
		return Absent(), fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Absent(), fmt.Errorf("invalid token file: %w", err)
	}
	return Present(tok.AccessToken), nil
}

// SetToken implements Store.
func (s *FileStore) SetToken(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(&oauth2.Token{
		AccessToken: value,
		TokenType:   "Bearer",
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token ("" for absent).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Load implements Store.
func (s *MemoryStore) Load() (Auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Present(s.token), nil
}

// SetToken implements Store.
func (s *MemoryStore) SetToken(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = value
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
