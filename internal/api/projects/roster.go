package projects

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/api/middleware"
)

// RoleRequest is the body of POST /roster/roles.
type RoleRequest struct {
	Name string `json:"name"`
}

// CellRequest addresses one slot/role cell. Volunteer is ignored by clear.
type CellRequest struct {
	Slot      string `json:"slot"`
	Role      string `json:"role"`
	Volunteer string `json:"volunteer,omitempty"`
}

// SaveResponse reports a successful save.
type SaveResponse struct {
	Saved  bool `json:"saved"`
	Filled int  `json:"filled"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return false
	}
	return true
}

// GetRoster initializes and returns the project's grid.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	rst, err := h.roster.InitializeGrid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonOK(w, rst)
}

// AddRole adds a role column.
func (h *Handler) AddRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !decode(w, r, &req) {
		return
	}
	rst, err := h.roster.AddRole(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonCreated(w, rst)
}

// RemoveRole removes the role named by the "name" query parameter.
func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	rst, err := h.roster.RemoveRole(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonOK(w, rst)
}

// Assign signs a volunteer up for a cell. Without a volunteer in the body
// the authenticated editor signs up.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Volunteer == "" {
		req.Volunteer = middleware.GetEditor(r.Context())
	}
	rst, err := h.roster.Assign(r.Context(), chi.URLParam(r, "id"), req.Slot, req.Role, req.Volunteer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonOK(w, rst)
}

// Clear empties a cell.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if !decode(w, r, &req) {
		return
	}
	rst, err := h.roster.Clear(r.Context(), chi.URLParam(r, "id"), req.Slot, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonOK(w, rst)
}

// Save writes the whole grid to the store and waits for the result.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.roster.SaveAll(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	grid := h.store.VolunteerData(ctx, id)
	log.Info().Str("project_id", id).Str("editor", middleware.GetEditor(ctx)).Msg("roster saved via api")
	jsonOK(w, SaveResponse{Saved: true, Filled: grid.Filled()})
}
