package monthly

import "github.com/go-chi/chi/v5"

// MountRoutes registers /monthly routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/registries", func(r chi.Router) {
		r.Get("/", h.listRegistries)
		r.Post("/", h.createRegistry)
		r.Get("/{id}", h.showRegistry)
		r.Put("/{id}", h.updateRegistry)
		r.Delete("/{id}", h.deleteRegistry)
		r.Post("/{id}/close", h.closeRegistry)
		r.Post("/{id}/reopen", h.reopenRegistry)
		r.Get("/{id}/deliveries", h.listDeliveries)
		r.Post("/{id}/deliveries", h.createDelivery)
	})
	r.Route("/deliveries", func(r chi.Router) {
		r.Get("/{id}", h.showDelivery)
		r.Put("/{id}", h.updateDelivery)
		r.Delete("/{id}", h.deleteDelivery)
	})
	r.Get("/stock-evolution", h.stockEvolution)
}

// MountSchedules registers /schedules routes.
func (h *Handler) MountSchedules(r chi.Router) {
	r.Get("/", h.listSchedules)
	r.Post("/", h.createSchedule)
	r.Get("/{id}", h.showSchedule)
	r.Put("/{id}", h.updateSchedule)
	r.Delete("/{id}", h.deleteSchedule)
}
