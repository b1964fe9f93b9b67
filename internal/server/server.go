package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/config"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/internal/ui"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the server routes to.
type Services struct {
	Store    Pinger
	Auth     *auth.Service
	Catalog  *catalog.Service
	Sessions *session.Manager
	Tokens   *auth.TokenIssuer
	Mailer   auth.Mailer
}

// Server serves the HTML interface and the JSON API.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     Pinger
	auth      *auth.Service
	catalog   *catalog.Service
	tokens    *auth.TokenIssuer
	metrics   *metrics.Metrics // optional; nil disables /metrics
	assetsDir string
	ui        *ui.UI
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithMetrics enables request instrumentation and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithAssetsDir overrides the directory served under /static/.
func WithAssetsDir(dir string) Option {
	return func(s *Server) {
		s.assetsDir = dir
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, svc Services, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     svc.Store,
		auth:      svc.Auth,
		catalog:   svc.Catalog,
		tokens:    svc.Tokens,
		assetsDir: "ui/assets",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ui = ui.New(svc.Auth, svc.Catalog, svc.Sessions, svc.Mailer, logger, ui.Config{
		BaseURL: cfg.BaseURL,
	})
	s.ui.WithMetrics(s.metrics)

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Static files (CSS, images)
	r.Handle("/static/*", ui.StaticHandler(s.assetsDir))

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)

	// Token auth (JSON)
	r.Route("/auth/api", func(r chi.Router) {
		r.Post("/register", s.handleAPIRegister)
		r.Post("/login", s.handleAPILogin)
		r.Post("/logout", s.handleAPILogout)
	})

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/characters", func(r chi.Router) {
			r.Get("/", s.handleListCharacters)
			r.Get("/{id}", s.handleGetCharacter)

			r.Group(func(r chi.Router) {
				r.Use(s.bearerAuth)
				r.Post("/", s.handleCreateCharacter)
				r.Put("/{id}", s.handleUpdateCharacter)
				r.Delete("/{id}", s.handleDeleteCharacter)
			})
		})
	})
}
