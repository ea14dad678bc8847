package http

import (
	"net/http"

	"tracker/internal/log"
	"tracker/internal/view"
)

// redirect sends the browser to url: an HX-Redirect for htmx requests, a
// 303 otherwise.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// followNavigation performs the move a controller asked for during this
// request. It reports whether a response was written.
func (s *Server) followNavigation(w http.ResponseWriter, r *http.Request, page *view.Page) bool {
	nav, ok := page.Recorder.Take()
	if !ok {
		return false
	}
	to := string(nav.To)
	if nav.Back {
		to = backTarget(r)
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Navigating", log.FieldRoute, to)
	s.redirect(w, r, to)
	return true
}

// backTarget resolves "one frame back": the posted origin page, then the
// referrer, as long as it is on this site and is not the current page.
// Without history the dashboard is the fallback.
func backTarget(r *http.Request) string {
	for _, raw := range []string{r.FormValue("from"), r.Referer()} {
		p := localPath(r, raw)
		if p == "" || p == r.URL.Path || p == string(view.RouteProfile) {
			continue
		}
		return p
	}
	return string(view.RouteDashboard)
}
