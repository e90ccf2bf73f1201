// Package server provides the operational HTTP server exposing metrics and
// health endpoints for the policy distribution control plane.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/telemetry/health"
	"eunomia-hq/eunomia/pkg/telemetry/metrics"
)

// Server is the operational HTTP server. It is separate from the mTLS
// control-plane listener (pkg/distributor.ControlPlane): this one serves
// plaintext /metrics, /health, /ready, and /version for scrapers and
// orchestrators, and never sees instance traffic.
type Server struct {
	config       *config.MetricsConfig
	collector    *metrics.Collector
	checker      *health.Checker
	version      string
	commit       string
	buildTime    string
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	authGate     func(http.Handler) http.Handler
}

// NewServer creates a new operational server.
func NewServer(cfg *config.MetricsConfig, collector *metrics.Collector, checker *health.Checker, version, commit, buildTime string) *Server {
	return &Server{
		config:       cfg,
		collector:    collector,
		checker:      checker,
		version:      version,
		commit:       commit,
		buildTime:    buildTime,
		shutdownChan: make(chan struct{}),
	}
}

// WithAuthGate wraps every route behind gate, e.g. an
// pkg/security/auth.APIKeyMiddleware.Handle when telemetry.metrics.auth
// is enabled. Must be called before Start.
func (s *Server) WithAuthGate(gate func(http.Handler) http.Handler) *Server {
	s.authGate = gate
	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()
	if s.authGate != nil {
		handler = s.authGate(handler)
	}

	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddress,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting ops server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		close(s.shutdownChan)

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				slog.Error("error during ops server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("ops server stopped")
	})

	return shutdownErr
}

// setupRoutes configures the operational HTTP routes.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	path := s.config.Path
	if path == "" {
		path = "/metrics"
	}
	if s.config.Enabled {
		mux.Handle(path, s.collector.Handler())
	}

	health.HTTPMiddleware(mux, s.checker, s.version, s.commit, s.buildTime)

	return mux
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for use in tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
