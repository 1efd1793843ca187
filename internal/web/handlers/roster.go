package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

// AddRole handles the add role form.
func (h *Handler) AddRole(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	name := r.FormValue("name")
	if _, err := h.roster.AddRole(r.Context(), chi.URLParam(r, "id"), name); err != nil {
		h.fail(sess, err, "Failed to add role")
		return
	}
	h.success(sess, "Success", fmt.Sprintf(`Role "%s" added successfully`, name))
}

// RemoveRole handles the role remove button.
func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	name := r.FormValue("name")
	if _, err := h.roster.RemoveRole(r.Context(), chi.URLParam(r, "id"), name); err != nil {
		h.fail(sess, err, "Failed to remove role")
		return
	}
	h.success(sess, "Success", fmt.Sprintf(`Role "%s" removed successfully`, name))
}

// Assign handles the per-cell sign up form and remembers the name for the
// next sign up.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	slot, role := r.FormValue("slot"), r.FormValue("role")
	volunteer := r.FormValue("volunteer")
	if _, err := h.roster.Assign(r.Context(), chi.URLParam(r, "id"), slot, role, volunteer); err != nil {
		h.fail(sess, err, "Failed to sign up volunteer")
		return
	}
	h.sessions.SetEditor(sess.ID, volunteer)
	h.success(sess, "Success", fmt.Sprintf("%s signed up for %s at %s", volunteer, role, slot))
}

// Clear handles the per-cell clear button.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	if _, err := h.roster.Clear(r.Context(), chi.URLParam(r, "id"), r.FormValue("slot"), r.FormValue("role")); err != nil {
		h.fail(sess, err, "Failed to remove volunteer")
		return
	}
	h.success(sess, "Success", "Volunteer removed successfully")
}

// Save writes the roster synchronously and reports the outcome.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r)
	defer redirectHome(w, r)

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.roster.SaveAll(ctx, id); err != nil {
		h.fail(sess, err, roster.MsgSaveFailed)
		return
	}

	name := id
	if p, err := h.store.Get(ctx, id); err == nil {
		name = p.Name
	}
	h.success(sess, "Roster Saved", fmt.Sprintf(`Roster for project "%s" has been saved successfully`, name))
}
