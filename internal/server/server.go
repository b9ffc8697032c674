// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
)

// ShutdownNotifier is told when the server stops accepting traffic so
// probes can fail before connections are closed.
type ShutdownNotifier interface {
	SetShutdown(shutdown bool)
}

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler ShutdownNotifier
	Logger        *slog.Logger
}

type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	health     ShutdownNotifier
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	router := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: cfg.ServerConfig.ReadTimeout,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		router: router,
		health: cfg.HealthHandler,
		logger: logger,
	}
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown flips the health probes, waits drainDelay for load balancers to
// notice, then lets in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetShutdown(true)
	}

	if drainDelay > 0 {
		s.logger.Info("draining before shutdown", "delay", drainDelay)

		timer := time.NewTimer(drainDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
