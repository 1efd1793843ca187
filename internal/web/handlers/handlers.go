// Package handlers serves the server-rendered roster pages.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/roster"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
)

type Handler struct {
	store    *roster.Store
	roster   *roster.Synchronizer
	sessions *session.Store
}

func NewHandler(store *roster.Store, syncer *roster.Synchronizer, sessions *session.Store) *Handler {
	return &Handler{
		store:    store,
		roster:   syncer,
		sessions: sessions,
	}
}

// Helper to get session from context
type contextKey string

const SessionContextKey contextKey = "session"

func GetSession(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(SessionContextKey).(*session.Session); ok {
		return s
	}
	return nil
}

func (h *Handler) success(sess *session.Session, title, msg string) {
	h.sessions.AddFlash(sess.ID, session.Flash{Kind: session.FlashSuccess, Title: title, Message: msg})
}

// fail flashes err. Validation messages are shown as is; anything else
// gets the generic fallback.
func (h *Handler) fail(sess *session.Session, err error, fallback string) {
	msg := fallback
	var verr *roster.ValidationError
	var nf *roster.NotFoundError
	switch {
	case errors.As(err, &verr):
		msg = verr.Message
	case errors.As(err, &nf):
		msg = "Project not found"
	default:
		log.Warn().Err(err).Msg("web action failed")
	}
	h.sessions.AddFlash(sess.ID, session.Flash{Kind: session.FlashError, Title: "Error", Message: msg})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
