package http

import (
	"net/http"

	"tracker/internal/view"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	_ = sc.Page.Profile.Mount(r.Context())
	if s.followNavigation(w, r, sc.Page) {
		return
	}

	st := sc.Page.Profile.Snapshot()
	from := localPath(r, r.Referer())
	if from == r.URL.Path {
		from = ""
	}
	s.render(w, r, http.StatusOK, tmplProfile, profileView{
		Profile: st.Profile,
		Error:   st.Error,
		From:    from,
	})
}

func (s *Server) handleProfileBack(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	sc.Page.Profile.GoBack()
	if !s.followNavigation(w, r, sc.Page) {
		s.redirect(w, r, string(view.RouteDashboard))
	}
}
