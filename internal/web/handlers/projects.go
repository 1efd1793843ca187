package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
	"github.com/good-yellow-bee/rostergrid/internal/web/views"
)

// ShowIndex renders the project picker and the selected roster.
func (h *Handler) ShowIndex(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	ctx := r.Context()

	var data views.IndexData
	var notices []session.Flash
	if !h.store.Loaded() {
		if err := h.store.Load(ctx); err != nil {
			data.LoadError = roster.MsgLoadFailed
		}
	}

	if data.LoadError == "" {
		data.Projects = h.store.List(ctx)
		h.autoSelect(sess, data.Projects)

		if sess.ProjectID != "" {
			rst, err := h.roster.InitializeGrid(ctx, sess.ProjectID)
			var nf *roster.NotFoundError
			switch {
			case errors.As(err, &nf):
				h.sessions.SelectProject(sess.ID, "")
				sess.ProjectID = ""
			case err != nil:
				log.Error().Err(err).Str("project_id", sess.ProjectID).Msg("load roster failed")
				notices = append(notices, session.Flash{
					Kind: session.FlashError, Title: "Error", Message: "Failed to load volunteer data",
				})
			default:
				data.Selected = rst
			}
		}
	}

	data.Flashes = append(h.sessions.PopFlashes(sess.ID), notices...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Index(sess, data, csrf.Token(r)).Render(ctx, w); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

// autoSelect picks the newest project when the session has no valid
// selection. projects is newest first.
func (h *Handler) autoSelect(sess *session.Session, projects []*models.Project) {
	for _, p := range projects {
		if p.ID == sess.ProjectID {
			return
		}
	}
	next := ""
	if len(projects) > 0 {
		next = projects[0].ID
	}
	if next != sess.ProjectID {
		h.sessions.SelectProject(sess.ID, next)
		sess.ProjectID = next
	}
}

// CreateProject handles the new project form.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	start, err1 := formHour(r, "start_time", models.DefaultStartHour)
	end, err2 := formHour(r, "end_time", models.DefaultEndHour)
	if err1 != nil || err2 != nil {
		h.fail(sess, &roster.ValidationError{Message: roster.MsgHourOutOfRange}, "")
		return
	}

	p, err := h.store.Create(r.Context(), r.FormValue("name"), start, end)
	if err != nil {
		h.fail(sess, err, "Failed to create project. Please try again.")
		return
	}

	h.sessions.SelectProject(sess.ID, p.ID)
	h.success(sess, "Success", fmt.Sprintf(`Project "%s" created successfully`, p.Name))
}

// formHour reads an hour field, falling back to def when it is blank.
func formHour(r *http.Request, field string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// SelectProject switches the session's project.
func (h *Handler) SelectProject(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	h.sessions.SelectProject(sess.ID, r.FormValue("project_id"))
	redirectHome(w, r)
}

// DeleteProject removes a project and clears it from the session if it
// was selected.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	id := chi.URLParam(r, "id")

	h.store.Delete(r.Context(), id)
	if sess.ProjectID == id {
		h.sessions.SelectProject(sess.ID, "")
	}
	h.success(sess, "Success", "Project deleted successfully")
	redirectHome(w, r)
}
