// Package session holds the bearer token for the signed-in user and a
// counter that changes every time the session does.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenEnv overrides the token file when set.
const TokenEnv = "HAVEN_TOKEN"

// ErrNoToken is returned by Login when given an empty token.
var ErrNoToken = errors.New("session: no token")

// Manager is the session accessor shared by the API client and the stores.
// It is safe for concurrent use.
type Manager struct {
	path string
	now  func() time.Time

	mu      sync.RWMutex
	token   string
	fromEnv bool
	epoch   uint64
}

// New returns a Manager persisting to path. It does not read the token;
// call Restore for that.
func New(path string) *Manager {
	return &Manager{path: path, now: time.Now}
}

// Restore loads the token using precedence: env var > file > empty. It
// reports whether a token was found.
func (m *Manager) Restore() bool {
	tok, fromEnv := readToken(m.path)

	m.mu.Lock()
	defer m.mu.Unlock()
	if tok != m.token {
		m.epoch++
	}
	m.token = tok
	m.fromEnv = fromEnv
	return tok != ""
}

func readToken(path string) (string, bool) {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		return tok, true
	}
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), false
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a token is present and not known to be
// expired. Tokens that are not JWTs are trusted until the server says otherwise.
func (m *Manager) Authenticated() bool {
	tok := m.Token()
	if tok == "" {
		return false
	}
	if exp, ok := ExpiresAt(tok); ok && !m.now().Before(exp) {
		return false
	}
	return true
}

// Epoch identifies the current session. It changes on every login, logout
// and restore that swaps the token, so async work can detect that the
// session it started under is gone.
func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Login installs token and saves it to the token file with mode 0600.
func (m *Manager) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if m.path != "" {
		if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
			return fmt.Errorf("session: create dir: %w", err)
		}
		if err := os.WriteFile(m.path, []byte(token), 0o600); err != nil {
			return fmt.Errorf("session: save token: %w", err)
		}
	}

	m.mu.Lock()
	m.token = token
	m.fromEnv = false
	m.epoch++
	m.mu.Unlock()
	return nil
}

// Logout forgets the token and removes the token file. It is safe to call
// when already signed out; the epoch still advances.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.token = ""
	m.fromEnv = false
	m.epoch++
	m.mu.Unlock()

	if m.path == "" {
		return nil
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove token: %w", err)
	}
	return nil
}

// FromEnv reports whether the token came from HAVEN_TOKEN.
func (m *Manager) FromEnv() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fromEnv
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// Verification belongs to the backend; this only lets the client skip
// requests that are certain to fail.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
