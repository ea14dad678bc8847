// Package http serves the expense tracker pages. Handlers resolve the
// browser's session, run the matching controller action and render a
// snapshot of the controller state as a full page or an HTMX partial.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/ulule/limiter/v3"
	limitmem "github.com/ulule/limiter/v3/drivers/store/memory"

	"tracker/internal/amqp"
	"tracker/internal/api"
	"tracker/internal/config"
	"tracker/internal/log"
	"tracker/internal/session"
	"tracker/internal/sheets"
	"tracker/internal/view"
	appweb "tracker/web"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// Deps are the collaborators the server is wired with.
type Deps struct {
	API       *api.Client
	Sessions  *session.Manager
	Publisher amqp.Publisher
	// Exporter is nil when export is not configured.
	Exporter sheets.Exporter
	Logger   *log.Logger
	Ready    map[string]ReadyCheck
}

type Server struct {
	http.Server
	templates *template.Template

	api       *api.Client
	sessions  *session.Manager
	pages     *view.Registry
	publisher amqp.Publisher
	exporter  sheets.Exporter
	ready     map[string]ReadyCheck
	logger    *log.Logger

	cookieName          string
	cookieSecure        bool
	sessionTTL          time.Duration
	clearOnUnauthorized bool

	generalLimiter *limiter.Limiter
	loginLimiter   *limiter.Limiter

	started      time.Time
	background   sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = amqp.Nop{}
	}

	general, err := newLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	login, err := newLimiter(cfg.LoginRateLimit)
	if err != nil {
		return nil, err
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		templates:           t,
		api:                 deps.API,
		sessions:            deps.Sessions,
		publisher:           publisher,
		exporter:            deps.Exporter,
		ready:               deps.Ready,
		logger:              logger.WithComponent(log.ComponentHTTP),
		cookieName:          cfg.SessionCookieName,
		cookieSecure:        cfg.SessionCookieSecure,
		sessionTTL:          cfg.SessionTTL,
		clearOnUnauthorized: cfg.ClearSessionOnUnauthorized,
		generalLimiter:      general,
		loginLimiter:        login,
		started:             time.Now(),
	}
	s.pages = view.NewRegistry(cfg.MaxSessions, cfg.SessionTTL, s.newPage, logger)

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		static.ServeHTTP(w, r)
	}))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.rateLimited(s.loginLimiter, s.handleLogin))
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.rateLimited(s.loginLimiter, s.handleRegister))
	mux.HandleFunc("POST /logout", s.rateLimited(s.generalLimiter, s.requireSession(s.handleLogout)))

	mux.HandleFunc("GET /dashboard", s.requireSession(s.handleDashboard))
	mux.HandleFunc("GET /ui/dashboard", s.requireSession(s.handleDashboardContent))
	mux.HandleFunc("POST /ui/filters", s.rateLimited(s.generalLimiter, s.requireSession(s.handleFilters)))
	mux.HandleFunc("GET /ui/expenses/new", s.requireSession(s.handleOpenCreate))
	mux.HandleFunc("GET /ui/expenses/{id}/edit", s.requireSession(s.handleOpenEdit))
	mux.HandleFunc("POST /ui/expenses/modal/close", s.requireSession(s.handleCloseModal))
	mux.HandleFunc("POST /ui/expenses/export", s.rateLimited(s.generalLimiter, s.requireSession(s.handleExport)))
	mux.HandleFunc("POST /expenses", s.rateLimited(s.generalLimiter, s.requireSession(s.handleSaveExpense)))
	mux.HandleFunc("DELETE /expenses/{id}", s.rateLimited(s.generalLimiter, s.requireSession(s.handleDeleteExpense)))

	mux.HandleFunc("GET /profile", s.requireSession(s.handleProfile))
	mux.HandleFunc("POST /profile/back", s.requireSession(s.handleProfileBack))

	s.Server = http.Server{
		Addr:              cfg.Addr(),
		Handler:           log.Middleware(logger.WithComponent(log.ComponentHTTP), extractClientIP)(withSecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func newLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(limitmem.NewStore(), rate), nil
}

// Pages exposes the view registry so its idle entries can be swept.
func (s *Server) Pages() *view.Registry {
	return s.pages
}

// newPage builds the controllers of one session, bound to its token.
func (s *Server) newPage(sessionID string, creds api.Credentials) *view.Page {
	rec := &view.Recorder{}
	client := s.api.WithCredentials(creds)
	opts := view.Options{
		Navigator:           rec,
		Closer:              s.sessions.Closer(sessionID),
		Logger:              s.logger.With(log.FieldSessionID, sessionID),
		ClearOnUnauthorized: s.clearOnUnauthorized,
	}
	return &view.Page{
		Dashboard: view.NewDashboard(client, opts),
		Profile:   view.NewProfile(client, opts),
		Recorder:  rec,
	}
}

// Shutdown stops accepting requests and waits for in-flight publishes.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)

		done := make(chan struct{})
		go func() {
			s.background.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("Shutdown deadline reached with publishes in flight")
		}
	})
	return shutdownErr
}

// publish sends an activity event without holding up the response.
func (s *Server) publish(ctx context.Context, msg *amqp.ActivityMessage) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.publisher.PublishActivity(ctx, msg); err != nil {
			log.FromContext(ctx).DebugContext(ctx, "Activity not published",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err.Error())
		}
	}()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.redirect(w, r, string(view.RouteDashboard))
}
