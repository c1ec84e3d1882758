package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all instrument catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/instruments", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/lookup", h.HandleLookup)

		r.Route("/{ticker}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGet(w, r, chi.URLParam(r, "ticker"))
			})
			r.Get("/volatility", func(w http.ResponseWriter, r *http.Request) {
				h.HandleVolatility(w, r, chi.URLParam(r, "ticker"))
			})
		})
	})
}
