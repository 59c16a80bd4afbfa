// Package api wires the HTTP surface: internal trigger endpoints for
// the external cron, health and metrics.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/api/handlers"
	"github.com/RocketHubAI/rocket-dispatch/internal/api/middleware"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/config"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	dispatch *handlers.DispatchHandler,
	feed *handlers.FeedHandler,
	health *handlers.HealthHandler,
	log zerolog.Logger,
) *Server {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{cfg.App.FrontendURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Live)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.ServiceAuth(cfg.Server.ServiceToken))
		r.Post("/dispatch/reports", dispatch.TriggerReports)
		r.Post("/dispatch/tasks", dispatch.TriggerTasks)
		r.Post("/maintenance/sweep", dispatch.TriggerSweep)
		r.Get("/users/{userID}/messages", feed.Messages)
		r.Get("/users/{userID}/notifications/unread", feed.UnreadNotifications)
		r.Get("/tasks/{taskID}/executions", feed.Executions)
	})

	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
