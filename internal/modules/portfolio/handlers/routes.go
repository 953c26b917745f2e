package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleListPositions)
		r.Post("/", h.HandleAddPosition)

		r.Get("/export", h.HandleExportCSV)
		r.Post("/import", h.HandleImportCSV)

		r.Route("/{ticker}", func(r chi.Router) {
			r.Get("/", h.HandleGetPosition)
			r.Put("/", h.HandleUpdatePosition)
			r.Delete("/", h.HandleRemovePosition)
		})
	})
}
