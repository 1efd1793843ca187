// Package web serves the browser UI.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/good-yellow-bee/rostergrid/internal/roster"
	"github.com/good-yellow-bee/rostergrid/internal/web/handlers"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
)

//go:embed static
var staticFS embed.FS

type Server struct {
	handler          *handlers.Handler
	sessions         *session.Store
	csrfKey          []byte
	useSecureCookies bool
}

// NewServer creates the web UI over the shared project store. csrfKey must
// be 32 bytes.
func NewServer(store *roster.Store, syncer *roster.Synchronizer, sessions *session.Store, csrfKey []byte, useSecureCookies bool) (*Server, error) {
	if len(csrfKey) != 32 {
		return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(csrfKey))
	}
	return &Server{
		handler:          handlers.NewHandler(store, syncer, sessions),
		sessions:         sessions,
		csrfKey:          csrfKey,
		useSecureCookies: useSecureCookies,
	}, nil
}

func (s *Server) StaticFS() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Unrecoverable init error - server cannot function without static assets
		panic(fmt.Sprintf("failed to create static FS: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

func (s *Server) Sessions() *session.Store {
	return s.sessions
}
