package projects

import "github.com/go-chi/chi/v5"

// Routes returns the project routes, mounted by the API under /projects.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.GetRoster)
			r.Post("/roles", h.AddRole)
			r.Delete("/roles", h.RemoveRole)
			r.Put("/assignments", h.Assign)
			r.Post("/assignments/clear", h.Clear)
			r.Post("/save", h.Save)
			r.Get("/export", h.Export)
		})
	})
	return r
}
