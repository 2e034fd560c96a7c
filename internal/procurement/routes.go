package procurement

import "github.com/go-chi/chi/v5"

// MountContracts registers /contracts routes.
func (h *Handler) MountContracts(r chi.Router) {
	r.Get("/", h.listContracts)
	r.Post("/", h.createContract)
	r.Get("/schedule", h.contractSchedule)
	r.Get("/{id}", h.showContract)
	r.Put("/{id}", h.updateContract)
	r.Delete("/{id}", h.deleteContract)
}

// MountQuotations registers /quotations routes.
func (h *Handler) MountQuotations(r chi.Router) {
	r.Get("/", h.listQuotations)
	r.Post("/", h.createQuotation)
	r.Get("/price-evolution", h.priceEvolution)
	r.Get("/{id}", h.showQuotation)
	r.Put("/{id}", h.updateQuotation)
	r.Delete("/{id}", h.deleteQuotation)
}

// MountPlans registers /purchase-plans routes.
func (h *Handler) MountPlans(r chi.Router) {
	r.Get("/", h.listPlans)
	r.Post("/", h.createPlan)
	r.Get("/{id}", h.showPlan)
	r.Put("/{id}", h.updatePlan)
	r.Delete("/{id}", h.deletePlan)
}
