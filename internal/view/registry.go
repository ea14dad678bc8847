package view

import (
	"time"

	"tracker/internal/api"
	"tracker/internal/cache"
	"tracker/internal/log"
)

// Page bundles the controllers of one browser session.
type Page struct {
	Dashboard *Dashboard
	Profile   *Profile
	Recorder  *Recorder
}

// PageFactory builds the controllers for a session the first time it is seen.
// creds is the session context the page's API calls carry.
type PageFactory func(sessionID string, creds api.Credentials) *Page

// Registry maps session IDs to their pages. Idle pages expire; the least
// recently used page is dropped when the registry is full.
type Registry struct {
	pages   *cache.LRUCache[*Page]
	factory PageFactory
}

func NewRegistry(maxPages int, idle time.Duration, factory PageFactory, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentCache)
	return &Registry{
		pages: cache.NewLRUCache[*Page](maxPages, idle,
			cache.WithSlidingExpiry[*Page](),
			cache.WithEvictCallback(func(id string, _ *Page) {
				logger.Debug("View state evicted", log.FieldSessionID, id)
			})),
		factory: factory,
	}
}

// Page returns the session's page, building it on first use. creds only
// matter on that first use; a session keeps its token for its lifetime.
func (r *Registry) Page(sessionID string, creds api.Credentials) *Page {
	return r.pages.GetOrCreate(sessionID, func() *Page {
		return r.factory(sessionID, creds)
	})
}

// Drop forgets a session's view state.
func (r *Registry) Drop(sessionID string) {
	r.pages.Delete(sessionID)
}

func (r *Registry) Size() int {
	return r.pages.Size()
}

// CleanExpired implements cache.Cleaner.
func (r *Registry) CleanExpired() int {
	return r.pages.CleanExpired()
}
