package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nutri-erp/nutri-erp/internal/audit"
	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90
)

// TimelineService defines the business contract for log data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result[audit.TimelineRow], error)
	AccessLog(ctx context.Context, filters audit.TimelineFilters) (audit.Result[audit.AccessRow], error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler serves the admin audit and access log endpoints.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, now: time.Now}
}

// WithNow overrides the clock used for default date ranges.
func (h *Handler) WithNow(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleAccessLog(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.AccessLog(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-timeline.csv\"")
	if err := audit.WriteCSV(w, rows); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	now := h.now().UTC()
	to := shared.NewDate(now)
	if d, err := shared.QueryDate(r, "to"); err != nil {
		return audit.TimelineFilters{}, err
	} else if d != nil {
		to = *d
	}
	from := shared.NewDate(to.Add(-defaultDateRange))
	if d, err := shared.QueryDate(r, "from"); err != nil {
		return audit.TimelineFilters{}, err
	} else if d != nil {
		from = *d
	}
	if from.After(to.Time) {
		return audit.TimelineFilters{}, shared.Validationf("from must not be after to")
	}
	if to.Sub(from.Time) > maxDateRangeHours*time.Hour {
		return audit.TimelineFilters{}, shared.Validationf("date range must not exceed 90 days")
	}
	page, err := httpx.QueryInt(r, "page", 1)
	if err != nil || page <= 0 {
		return audit.TimelineFilters{}, shared.Validationf("page must be a positive integer")
	}
	size, err := httpx.QueryInt(r, "page_size", 0)
	if err != nil || size < 0 {
		return audit.TimelineFilters{}, shared.Validationf("page_size must be a positive integer")
	}
	actor, err := httpx.QueryInt64(r, "actor_id")
	if err != nil {
		return audit.TimelineFilters{}, err
	}
	return audit.TimelineFilters{
		From:     from.Time,
		To:       to.Time,
		ActorID:  actor,
		Entity:   strings.TrimSpace(r.URL.Query().Get("entity")),
		Action:   strings.TrimSpace(r.URL.Query().Get("action")),
		Page:     page,
		PageSize: size,
	}, nil
}
