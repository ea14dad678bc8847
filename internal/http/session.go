package http

import (
	"errors"
	"net/http"
	"time"

	"tracker/internal/log"
	"tracker/internal/session"
	"tracker/internal/view"
)

// bearer is a fixed token handed to a session's API client.
type bearer string

func (b bearer) BearerToken() string { return string(b) }

// sessionContext is what guarded handlers receive.
type sessionContext struct {
	Session *session.Session
	Page    *view.Page
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sc *sessionContext)

// currentSession resolves the session cookie. A missing cookie or unknown
// session yields session.ErrNotFound.
func (s *Server) currentSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, session.ErrNotFound
	}
	return s.sessions.Lookup(r.Context(), c.Value)
}

// requireSession is the auth guard: requests without an authenticated
// session go to the login page.
func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := s.currentSession(r)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			log.FromContext(ctx).ErrorContext(ctx, "Session lookup failed",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeDatabase)
		}
		if sess == nil || !sess.Authenticated(time.Now()) {
			if sess != nil {
				s.pages.Drop(sess.ID)
			}
			s.redirect(w, r, string(view.RouteLogin))
			return
		}

		logger := log.FromContext(ctx).With(log.FieldSessionID, sess.ID)
		r = r.WithContext(log.NewContext(ctx, logger))
		next(w, r, &sessionContext{
			Session: sess,
			Page:    s.pages.Page(sess.ID, bearer(sess.Token)),
		})
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
