package session

import (
	"context"
	"time"

	"tracker/internal/cache"
)

// MemoryStore keeps sessions in an LRU with sliding expiry. Sessions are
// lost on restart.
type MemoryStore struct {
	items *cache.LRUCache[Session]
}

func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: cache.NewLRUCache[Session](maxSessions, ttl, cache.WithSlidingExpiry[Session]()),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := m.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.items.Set(s.ID, *s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.items.Delete(id)
	return nil
}

// CleanExpired implements cache.Cleaner.
func (m *MemoryStore) CleanExpired() int {
	return m.items.CleanExpired()
}
