package closing

import "github.com/go-chi/chi/v5"

// MountRoutes registers /closings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listClosings)
	r.Post("/", h.createClosing)
	r.Route("/average-costs", func(r chi.Router) {
		r.Get("/", h.listAverageCosts)
		r.Post("/calculate", h.calculateAverageCost)
		r.Get("/{id}", h.showAverageCost)
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/average-cost", h.averageCostReport)
		r.Get("/average-cost.xlsx", h.averageCostXLSX)
		r.Get("/price-trend", h.priceTrend)
	})
	r.Get("/{id}", h.showClosing)
	r.Post("/{id}/close", h.closeClosing)
	r.Post("/{id}/reopen", h.reopenClosing)
}

// MountAnalyses registers /analyses routes.
func (h *Handler) MountAnalyses(r chi.Router) {
	r.Get("/", h.listAnalyses)
	r.Post("/", h.createAnalysis)
	r.Get("/{id}", h.showAnalysis)
	r.Put("/{id}", h.updateAnalysis)
	r.Delete("/{id}", h.deleteAnalysis)
}
