package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	apimiddleware "github.com/good-yellow-bee/rostergrid/internal/api/middleware"
	"github.com/good-yellow-bee/rostergrid/internal/web/middleware"
)

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	// Static files (no session, no CSRF)
	r.Handle("/static/*", http.StripPrefix("/static/", s.StaticFS()))

	r.Group(func(r chi.Router) {
		r.Use(markPlaintext)
		r.Use(csrf.Protect(
			s.csrfKey,
			csrf.Secure(s.useSecureCookies),
			csrf.Path("/"),
		))
		r.Use(middleware.LoadSession(s.sessions, s.useSecureCookies))

		r.Get("/", s.handler.ShowIndex)
		r.Post("/projects", s.handler.CreateProject)
		r.Post("/projects/select", s.handler.SelectProject)

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Post("/delete", s.handler.DeleteProject)
			r.Post("/roles", s.handler.AddRole)
			r.Post("/roles/remove", s.handler.RemoveRole)
			r.Post("/assign", s.handler.Assign)
			r.Post("/clear", s.handler.Clear)
			r.Post("/save", s.handler.Save)
		})
	})

	return r
}

// markPlaintext tells gorilla/csrf which requests arrived over plain HTTP
// so it skips the HTTPS-only Referer check for them.
func markPlaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !apimiddleware.IsRequestSecure(r) {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}
