package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/germanmitharsh/formgate/internal/config"
	"github.com/germanmitharsh/formgate/internal/notify"
	"github.com/germanmitharsh/formgate/internal/ratelimit"
	"github.com/germanmitharsh/formgate/internal/storage"
)

// Deps bundles the pipeline components the handlers need.
type Deps struct {
	Store           storage.Storage
	Limiter         *ratelimit.Limiter
	ContactNotifier *notify.Notifier
	EnrollNotifier  *notify.Notifier
	AdminAPIKey     string
}

type Server struct {
	cfg    config.ServerConfig
	router *chi.Mux
	log    zerolog.Logger
	http   *http.Server
}

func NewServer(cfg config.ServerConfig, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		cfg: cfg,
		log: log,
	}
	s.router = s.buildRouter(deps)
	return s
}

func (s *Server) buildRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	// The forms are posted from the browser; the original deployment answered
	// preflights with these exact headers.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))

	contactHandler := NewContactHandler(deps.Store, deps.Limiter, deps.ContactNotifier, s.log)
	enrollHandler := NewEnrollHandler(deps.Store, deps.Limiter, deps.EnrollNotifier, s.log)
	adminHandler := NewAdminHandler(deps.Store)

	r.Get("/health", adminHandler.Health)

	r.Post("/contact", contactHandler.Submit)
	r.Post("/enroll", enrollHandler.Submit)

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(deps.AdminAPIKey))
		r.Get("/submissions", adminHandler.ListSubmissions)
	})

	return r
}

// Router exposes the configured mux; tests drive it through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
