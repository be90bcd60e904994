// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package server exposes workspaces over a JSON HTTP API, a WebSocket event
// stream and MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/config"
	"github.com/tejzpr/sweety-vault/internal/metrics"
	"github.com/tejzpr/sweety-vault/internal/workspace"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server handles HTTP routes
type Server struct {
	cfg        config.ServerConfig
	provider   auth.Provider
	workspaces *workspace.Registry
	authMW     *auth.Middleware
	validate   *validator.Validate
	upgrader   websocket.Upgrader

	mcp     *MCPServer
	metrics *metrics.Collector
	health  HealthCheck
	logger  *zap.Logger
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables request instrumentation and the /metrics endpoint.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMCP mounts the MCP tools at /mcp.
func WithMCP(m *MCPServer) Option {
	return func(s *Server) {
		s.mcp = m
	}
}

// WithHealthCheck adds a backend probe to /health.
func WithHealthCheck(check HealthCheck) Option {
	return func(s *Server) {
		s.health = check
	}
}

// New creates an HTTP server. A nil provider disables sign-in.
func New(cfg config.ServerConfig, provider auth.Provider, workspaces *workspace.Registry, opts ...Option) *Server {
	if provider == nil {
		provider = auth.DisabledProvider{}
	}
	s := &Server{
		cfg:        cfg,
		provider:   provider,
		workspaces: workspaces,
		validate:   newValidator(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.authMW = auth.NewMiddleware(provider, s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(instrument(s.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/refresh", s.handleRefresh)
			r.With(s.authMW.RequireAuth).Post("/signout", s.handleSignOut)
			r.With(s.authMW.OptionalAuth).Get("/session", s.handleSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMW.RequireAuth)

			r.Get("/state", s.handleState)
			r.Put("/input", s.handleInput)
			r.Post("/nicknames", s.handleGenerate)
			r.Post("/selection/{label}", s.handleToggleSelection)

			r.Route("/memories", func(r chi.Router) {
				r.Get("/", s.handleListMemories)
				r.Post("/", s.handleConfirm)
				r.Post("/{id}/expand", s.handleExpand)
				r.Post("/{id}/delete-request", s.handleRequestDelete)
				r.Delete("/{id}/delete-request", s.handleCancelDelete)
				r.Delete("/{id}", s.handleDelete)
			})

			r.Get("/events", s.handleEvents)
		})
	})

	if s.mcp != nil {
		r.With(s.authMW.RequireAuth).Handle("/mcp", s.mcp.HTTPHandler())
	}

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr), zap.Bool("tls", s.cfg.TLS.Enabled))
		if s.cfg.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"workspaces": s.workspaces.Len(),
	})
}

// checkOrigin accepts same-origin requests and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
