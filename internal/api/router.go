package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/rostergrid/internal/api/middleware"
	"github.com/good-yellow-bee/rostergrid/internal/api/projects"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrMethodNotAllowed)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if s.jwt != nil {
			r.Use(middleware.JWTAuth(s.jwt))
		}
		r.Use(middleware.RateLimit(s.limiter, s.config.TrustedProxies))

		r.Mount("/projects", projects.NewHandler(s.store, s.roster).Routes())
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
