package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes registers the admin-only log endpoints. CSV export is rate
// limited per user.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusTooManyRequests, httpx.ErrorBody{Error: "too many export requests"})
		}),
	)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Get("/logs", h.handleTimeline)
		r.Get("/access-logs", h.handleAccessLog)
		r.With(limiter).Get("/logs/export.csv", h.handleExport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if user := shared.SessionFromContext(r.Context()).User(); user != "" {
		return "user:" + user, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
