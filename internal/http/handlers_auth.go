package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"tracker/internal/amqp"
	"tracker/internal/api"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/view"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationErrors maps failed fields (by JSON name) to a message.
func validationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required"
		case "email":
			out[field] = "Enter a valid email address"
		case "min":
			out[field] = "Must be at least " + fe.Param() + " characters"
		default:
			out[field] = "Invalid value"
		}
	}
	return out
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, tmplLogin, authView{
		Registered: r.URL.Query().Get("registered") == "1",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.render(w, r, http.StatusBadRequest, tmplLogin, authView{Error: "Invalid request"})
		return
	}
	creds := core.Credentials{
		Email:    strings.TrimSpace(p.Get("email")),
		Password: p.Get("password"),
	}
	if err := validate.Struct(creds); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, tmplLogin, authView{
			Email:  creds.Email,
			Errors: validationErrors(err),
		})
		return
	}

	res, err := s.api.Login(ctx, creds)
	if err == nil && res.BearerToken() == "" {
		err = errors.New("login response carried no token")
	}
	if err != nil {
		status := http.StatusBadGateway
		if api.IsUnauthorized(err) {
			status = http.StatusUnauthorized
		}
		var reqErr *api.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode < 500 {
			status = reqErr.StatusCode
		}
		logger.WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeAuth)
		s.render(w, r, status, tmplLogin, authView{Email: creds.Email, Error: loginMessage(err)})
		return
	}

	// A new login always starts a new session; the old one is dropped.
	if old, err := s.currentSession(r); err == nil {
		s.endSession(r, old.ID)
	}

	sess, err := s.sessions.Start(ctx, res.BearerToken())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start session",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
		s.render(w, r, http.StatusInternalServerError, tmplLogin, authView{Email: creds.Email, Error: "Could not start a session. Please try again."})
		return
	}

	s.setSessionCookie(w, sess.ID)
	s.publish(ctx, amqp.NewActivityMessage(amqp.EventSessionLogin, sess.ID))
	logger.InfoContext(ctx, "User logged in", log.FieldSessionID, sess.ID)
	s.redirect(w, r, string(view.RouteDashboard))
}

// loginMessage keeps the server's message for application errors.
func loginMessage(err error) string {
	var reqErr *api.RequestError
	var transportErr *api.TransportError
	if errors.As(err, &reqErr) || errors.As(err, &transportErr) {
		return api.Message(err)
	}
	return "Login failed. Please try again."
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, tmplRegister, authView{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.render(w, r, http.StatusBadRequest, tmplRegister, authView{Error: "Invalid request"})
		return
	}
	reg := core.Registration{
		Username: strings.TrimSpace(p.Get("username")),
		Email:    strings.TrimSpace(p.Get("email")),
		Password: p.Get("password"),
	}
	if err := validate.Struct(reg); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, tmplRegister, authView{
			Email:    reg.Email,
			Username: reg.Username,
			Errors:   validationErrors(err),
		})
		return
	}

	if _, err := s.api.Register(ctx, reg); err != nil {
		status := http.StatusBadGateway
		var reqErr *api.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode < 500 {
			status = reqErr.StatusCode
		}
		log.FromContext(ctx).WarnContext(ctx, "Registration failed",
			log.FieldOperation, log.OpRegister,
			log.FieldError, err.Error())
		s.render(w, r, status, tmplRegister, authView{Email: reg.Email, Username: reg.Username, Error: api.Message(err)})
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User registered", log.FieldOperation, log.OpRegister)
	s.redirect(w, r, string(view.RouteLogin)+"?registered=1")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	ctx := r.Context()
	_ = sc.Page.Dashboard.Logout(ctx)

	s.endSession(r, sc.Session.ID)
	s.clearSessionCookie(w)
	s.publish(ctx, amqp.NewActivityMessage(amqp.EventSessionLogout, sc.Session.ID))
	log.FromContext(ctx).InfoContext(ctx, "User logged out", log.FieldOperation, log.OpLogout)

	if !s.followNavigation(w, r, sc.Page) {
		s.redirect(w, r, string(view.RouteLogin))
	}
}

// endSession deletes the session and its view state.
func (s *Server) endSession(r *http.Request, id string) {
	if err := s.sessions.End(r.Context(), id); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to end session",
			log.FieldSessionID, id,
			log.FieldError, err.Error())
	}
	s.pages.Drop(id)
}
