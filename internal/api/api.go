// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/api/auth"
	"github.com/good-yellow-bee/rostergrid/internal/api/health"
	"github.com/good-yellow-bee/rostergrid/internal/api/middleware"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address string
	// JWTSecret enables bearer token auth on /api/v1 when set.
	JWTSecret          []byte
	TokenTTL           time.Duration
	TrustedProxies     []string // Trusted proxy IPs/CIDRs for X-Forwarded-For
	RateLimitPerSecond float64
	RateLimitBurst     int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	Verbose            bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.RateLimitPerSecond == 0 {
		c.RateLimitPerSecond = 10
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 20
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	store         *roster.Store
	roster        *roster.Synchronizer
	jwt           *auth.JWTService
	limiter       *middleware.RateLimiter
	router        *chi.Mux
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server.
func New(cfg *Config, store *roster.Store, syncer *roster.Synchronizer) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil || syncer == nil {
		return nil, fmt.Errorf("project store is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		store:         store,
		roster:        syncer,
		limiter:       middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		healthHandler: health.NewHandler(),
	}
	if len(cfg.JWTSecret) > 0 {
		s.jwt = auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	}

	s.router = s.setupRouter()
	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// Mount attaches another handler, such as the web UI, to the router.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Info().Str("address", s.config.Address).Bool("auth", s.jwt != nil).Msg("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	cleanup := time.NewTicker(5 * time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down HTTP API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			defer cancel()
			return s.server.Shutdown(shutdownCtx)
		case err := <-errChan:
			return err
		case <-cleanup.C:
			s.limiter.Cleanup()
		}
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
