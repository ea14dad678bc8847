// Package session holds the per-browser session context: the opaque session
// ID kept in a cookie and the bearer token obtained at login. It is the only
// place the token lives; the API client reads it through the Session value it
// is bound to.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracker/internal/log"
)

var ErrNotFound = errors.New("session not found")

// Session is the explicit session context injected into the API client.
type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BearerToken implements api.Credentials.
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Authenticated reports whether the session holds a token that has not
// visibly expired. Opaque tokens count as valid until the server says no.
func (s *Session) Authenticated(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	exp, ok := TokenExpiry(s.Token)
	return !ok || now.Before(exp)
}

// Store persists sessions by ID.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Manager is the session service used by the HTTP layer.
type Manager struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

func NewManager(store Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		store:  store,
		logger: logger.WithComponent(log.ComponentSession),
		now:    time.Now,
	}
}

// Start creates a new session holding token.
func (m *Manager) Start(ctx context.Context, token string) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.InfoContext(ctx, "Session started", log.FieldSessionID, s.ID)
	return s, nil
}

// Lookup returns the session for id, or ErrNotFound.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(ctx, id)
}

// ClearToken drops the bearer token but keeps the session row, so the
// browser's cookie still maps to the same view state.
func (m *Manager) ClearToken(ctx context.Context, id string) error {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Token = ""
	s.UpdatedAt = m.now()
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	m.logger.InfoContext(ctx, "Session token cleared", log.FieldSessionID, id)
	return nil
}

// End removes the session entirely.
func (m *Manager) End(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.InfoContext(ctx, "Session ended", log.FieldSessionID, id)
	return nil
}

// Closer binds a session ID so a controller can end its own session
// without knowing about the store.
func (m *Manager) Closer(id string) *Closer {
	return &Closer{manager: m, id: id}
}

type Closer struct {
	manager *Manager
	id      string
}

// CloseSession clears the stored token.
func (c *Closer) CloseSession(ctx context.Context) error {
	err := c.manager.ClearToken(ctx, c.id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
