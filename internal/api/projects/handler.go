// Package projects serves the project and roster endpoints.
package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/api/middleware"
	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest        = "BAD_REQUEST"
	errCodeValidationFailed  = "VALIDATION_FAILED"
	errCodeNotFound          = "NOT_FOUND"
	errCodePersistenceFailed = "PERSISTENCE_FAILED"
	errCodeInternalError     = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps the roster error taxonomy onto API responses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *roster.ValidationError
	var nf *roster.NotFoundError
	var perr *roster.PersistenceError

	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, verr.Message)
	case errors.As(err, &nf):
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
	case errors.As(err, &perr):
		jsonError(w, http.StatusBadGateway, errCodePersistenceFailed, persistenceMessage(perr))
	default:
		log.Error().Err(err).Msg("unexpected handler error")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
	}
}

func persistenceMessage(err *roster.PersistenceError) string {
	switch err.Op {
	case "save roster":
		return roster.MsgSaveFailed
	case "load projects":
		return roster.MsgLoadFailed
	default:
		return "project store unavailable"
	}
}

// Handler serves projects and their rosters.
type Handler struct {
	store  *roster.Store
	roster *roster.Synchronizer
}

// NewHandler creates a handler over the shared project store.
func NewHandler(store *roster.Store, syncer *roster.Synchronizer) *Handler {
	return &Handler{store: store, roster: syncer}
}

// CreateRequest is the body of POST /projects. Missing hours default to
// a 9 to 17 window.
type CreateRequest struct {
	Name      string `json:"name"`
	StartTime *int   `json:"start_time"`
	EndTime   *int   `json:"end_time"`
}

// List returns all projects, newest first. The first load from the store
// must succeed; after that the local copy is served.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.store.Loaded() {
		if err := h.store.Load(ctx); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	jsonOK(w, h.store.List(ctx))
}

// Create creates a new project.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if err := ValidateName(req.Name); err != nil {
		writeDomainError(w, err)
		return
	}

	start, end := models.DefaultStartHour, models.DefaultEndHour
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}

	project, err := h.store.Create(r.Context(), req.Name, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Info().
		Str("project_id", project.ID).
		Str("name", project.Name).
		Str("editor", middleware.GetEditor(r.Context())).
		Msg("project created")
	jsonCreated(w, project)
}

// GetByID returns a project by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return
	}

	project, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonOK(w, project)
}

// Update applies a partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return
	}

	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	current, err := h.store.Get(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := ValidatePatch(current, &patch); err != nil {
		writeDomainError(w, err)
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	reshapeGrid(current, &patch)

	project := h.store.Update(ctx, id, &patch)
	log.Info().Str("project_id", id).Str("editor", middleware.GetEditor(ctx)).Msg("project updated")
	jsonOK(w, project)
}

// Delete removes a project. It always succeeds.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return
	}

	h.store.Delete(r.Context(), id)
	jsonNoContent(w)
}
