package view

import "sync"

// Route is an in-app location a controller can send the browser to.
type Route string

const (
	RouteLogin     Route = "/login"
	RouteDashboard Route = "/dashboard"
	RouteProfile   Route = "/profile"
)

// Navigator moves the user between pages. Controllers call it; the HTTP
// layer decides how the move reaches the browser.
type Navigator interface {
	Navigate(to Route)
	Back()
}

// Navigation is a pending move. Back means "one frame back", resolved by
// the HTTP layer from the request.
type Navigation struct {
	To   Route
	Back bool
}

// Recorder is a Navigator that remembers the latest requested move until it
// is taken.
type Recorder struct {
	mu      sync.Mutex
	pending *Navigation
}

func (r *Recorder) Navigate(to Route) {
	r.mu.Lock()
	r.pending = &Navigation{To: to}
	r.mu.Unlock()
}

func (r *Recorder) Back() {
	r.mu.Lock()
	r.pending = &Navigation{Back: true}
	r.mu.Unlock()
}

// Take returns the pending move, if any, and clears it.
func (r *Recorder) Take() (Navigation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Navigation{}, false
	}
	nav := *r.pending
	r.pending = nil
	return nav, true
}
