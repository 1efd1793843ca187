// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// RequestLogger returns a middleware that logs HTTP requests. Successful
// requests are logged at debug level unless verbose is set.
func RequestLogger(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()[:8]

			w.Header().Set("X-Request-ID", requestID)

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			// The auth middleware runs further down the chain and fills the
			// editor in place.
			actor := &requestActor{}
			next.ServeHTTP(wrapped, r.WithContext(withActor(r.Context(), actor)))

			level := zerolog.DebugLevel
			switch {
			case wrapped.status >= 500:
				level = zerolog.ErrorLevel
			case wrapped.status >= 400:
				level = zerolog.WarnLevel
			case verbose:
				level = zerolog.InfoLevel
			}

			event := log.WithLevel(level).
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.status).
				Int("size", wrapped.size).
				Dur("duration", time.Since(start))
			if actor.editor != "" {
				event = event.Str("editor", actor.editor)
			}
			event.Msg("http request")
		})
	}
}
