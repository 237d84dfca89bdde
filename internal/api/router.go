package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/calm-green-heron/connwatch/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	ipLimiter := middleware.NewIPRateLimiter(s.config.RateLimitPerIP)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ipLimiter))

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", s.handleListLogs)
			r.Get("/export", s.handleExportLogs)
			r.Delete("/", s.handleClearLogs)
		})

		r.Get("/status", s.handleStatus)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/latest", s.handleLatestBackup)
			r.Get("/stream", s.handleBackupStream)
			r.Post("/", s.handleTriggerBackup)
		})
	})

	// Health check (public, no rate limit)
	r.Get("/health", s.handleHealth)

	return r
}
