package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/masterdata/inputs"
	"github.com/nutri-erp/nutri-erp/internal/masterdata/suppliers"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler groups the master data sub-handlers.
type Handler struct {
	Inputs    *inputs.Handler
	Suppliers *suppliers.Handler
}

// Services exposes the master data services used by the ledgers.
type Services struct {
	Inputs    *inputs.Service
	Suppliers *suppliers.Service
}

// New wires repositories, services and handlers for master data.
func New(logger *slog.Logger, pool *pgxpool.Pool, audit *shared.AuditLogger) (*Handler, Services) {
	svcs := Services{
		Inputs:    inputs.NewService(inputs.NewRepository(pool), audit),
		Suppliers: suppliers.NewService(suppliers.NewRepository(pool)),
	}
	h := &Handler{
		Inputs:    inputs.NewHandler(logger, svcs.Inputs),
		Suppliers: suppliers.NewHandler(logger, svcs.Suppliers),
	}
	return h, svcs
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/inputs", h.Inputs.MountRoutes)
	r.Route("/suppliers", h.Suppliers.MountRoutes)
}
