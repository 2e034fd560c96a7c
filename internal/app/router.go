package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/nutri-erp/nutri-erp/internal/audit/http"
	"github.com/nutri-erp/nutri-erp/internal/auth"
	"github.com/nutri-erp/nutri-erp/internal/closing"
	"github.com/nutri-erp/nutri-erp/internal/invoices"
	"github.com/nutri-erp/nutri-erp/internal/masterdata"
	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/observability"
	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/procurement"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
	"github.com/nutri-erp/nutri-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	RBACMiddleware     rbac.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	MasterDataHandler  *masterdata.Handler
	InvoicesHandler    *invoices.Handler
	ProcurementHandler *procurement.Handler
	MonthlyHandler     *monthly.Handler
	ClosingHandler     *closing.Handler
	AuditHandler       *audithttp.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
		})

		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAuthenticated)
			if params.MasterDataHandler != nil {
				params.MasterDataHandler.MountRoutes(r)
			}
			if params.InvoicesHandler != nil {
				r.Route("/invoices", params.InvoicesHandler.MountRoutes)
			}
			if params.ProcurementHandler != nil {
				r.Route("/contracts", params.ProcurementHandler.MountContracts)
				r.Route("/quotations", params.ProcurementHandler.MountQuotations)
				r.Route("/purchase-plans", params.ProcurementHandler.MountPlans)
			}
			if params.MonthlyHandler != nil {
				r.Route("/monthly", params.MonthlyHandler.MountRoutes)
				r.Route("/schedules", params.MonthlyHandler.MountSchedules)
			}
			if params.ClosingHandler != nil {
				r.Route("/closings", params.ClosingHandler.MountRoutes)
				r.Route("/analyses", params.ClosingHandler.MountAnalyses)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.ErrorBody{Error: "route not found"})
	})

	return r
}
