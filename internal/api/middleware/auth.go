package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/api/auth"
)

// Context keys for request-scoped values.
type contextKey string

const (
	editorKey contextKey = "editor"
	claimsKey contextKey = "claims"
	actorKey  contextKey = "actor"
)

// requestActor is shared between RequestLogger and JWTAuth so the access
// log can name the editor.
type requestActor struct {
	editor string
}

func withActor(ctx context.Context, a *requestActor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// jsonUnauthorized writes an unauthorized error response.
func jsonUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "invalid or expired token",
		},
	})
}

// JWTAuth returns middleware that validates bearer tokens and records the
// editor they name.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				jsonUnauthorized(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				jsonUnauthorized(w)
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("jwt auth failed")
				jsonUnauthorized(w)
				return
			}

			ctx := r.Context()
			if a, ok := ctx.Value(actorKey).(*requestActor); ok {
				a.editor = claims.Editor
			}
			ctx = context.WithValue(ctx, editorKey, claims.Editor)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEditor returns the authenticated editor name from context.
func GetEditor(ctx context.Context) string {
	if v := ctx.Value(editorKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetClaims returns the JWT claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
