package projects

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/export"
)

// Export downloads the roster. Query parameters: format (csv, json; default
// csv) and view (grid, signups; default grid).
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	formatParam := q.Get("format")
	if formatParam == "" {
		formatParam = string(export.FormatCSV)
	}
	format, ok := export.ParseFormat(formatParam)
	if !ok {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "format must be csv or json")
		return
	}
	view := q.Get("view")
	if view == "" {
		view = "grid"
	}
	if view != "grid" && view != "signups" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "view must be grid or signups")
		return
	}

	id := chi.URLParam(r, "id")
	rst, err := h.roster.InitializeGrid(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ext := string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s.%s"`, view, ext))

	exp := export.NewExporter(format, w)
	if view == "signups" {
		err = exp.ExportSignups(rst)
	} else {
		err = exp.ExportGrid(rst)
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", id).Msg("roster export failed")
	}
}
