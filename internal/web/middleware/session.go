package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/web/handlers"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
)

// LoadSession attaches the browser's session to the request, starting an
// anonymous one when the cookie is missing or expired.
func LoadSession(store *session.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *session.Session
			if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
				if s, ok := store.Get(cookie.Value); ok {
					sess = s
				}
			}

			if sess == nil {
				created, err := store.Create()
				if err != nil {
					log.Error().Err(err).Msg("create session")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				sess = created
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), handlers.SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
