// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/calm-green-heron/connwatch/internal/monitor"
	"github.com/calm-green-heron/connwatch/internal/notifier"
	"github.com/calm-green-heron/connwatch/internal/persist"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address           string
	RateLimitPerIP    int           // Requests per minute per client IP
	QueryTimeout      time.Duration // Timeout for store-backed API calls
	StreamMaxDuration time.Duration // Max lifetime for backup stream connections
	Verbose           bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 120
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 10 * time.Second
	}
	if c.StreamMaxDuration == 0 {
		c.StreamMaxDuration = 30 * time.Minute
	}
}

// Server is the HTTP API server.
type Server struct {
	config  *Config
	service *monitor.Service
	manager *persist.Manager
	hub     *notifier.Hub
	latest  *notifier.LatestNotifier
	stateFn func() string
	server  *http.Server
}

// New creates a new API server. hub and latest may be nil; the backup
// stream and status endpoints degrade gracefully without them.
func New(cfg *Config, svc *monitor.Service, mgr *persist.Manager, hub *notifier.Hub, latest *notifier.LatestNotifier) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("monitor service is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:  cfg,
		service: svc,
		manager: mgr,
		hub:     hub,
		latest:  latest,
	}

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     s.setupRouter(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays 0: the backup stream endpoint holds an SSE
		// connection open far longer than any sane global timeout.
		// Non-streaming handlers are bounded by QueryTimeout instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// SetStateFunc wires the current-connectivity callback used by the status
// endpoint. Without it the status reports "UNKNOWN".
func (s *Server) SetStateFunc(fn func() string) {
	s.stateFn = fn
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
