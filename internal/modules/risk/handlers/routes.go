package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/assess", h.HandleAssess)

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", h.HandleListPortfolios)
			r.Post("/", h.HandleUpsertPortfolio)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					h.HandleGetPortfolio(w, r, chi.URLParam(r, "name"))
				})
				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					h.HandleDeletePortfolio(w, r, chi.URLParam(r, "name"))
				})
				r.Get("/report", func(w http.ResponseWriter, r *http.Request) {
					h.HandleGetLatestReport(w, r, chi.URLParam(r, "name"))
				})
				r.Get("/reports", func(w http.ResponseWriter, r *http.Request) {
					h.HandleGetReportHistory(w, r, chi.URLParam(r, "name"))
				})
			})
		})
	})
}
