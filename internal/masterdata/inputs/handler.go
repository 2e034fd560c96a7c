package inputs

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler exposes input endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	offset, err := httpx.QueryInt(r, "offset", 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters := ListFilters{
		Name:   httpx.QueryString(r, "name"),
		Code:   httpx.QueryString(r, "code"),
		Status: httpx.QueryString(r, "status"),
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	views := make([]View, 0, len(items))
	for _, in := range items {
		views = append(views, toView(in))
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(views, shared.NewPage(limit, offset)))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(in))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(in))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(in))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "input deactivated")
}
