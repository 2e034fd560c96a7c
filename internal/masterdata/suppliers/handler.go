package suppliers

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
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
		CNPJ:   httpx.QueryString(r, "cnpj"),
		Status: httpx.QueryString(r, "status"),
		Limit:  limit,
		Offset: offset,
	}
	suppliers, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(suppliers, shared.NewPage(limit, offset)))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sup)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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
	sup, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "supplier deactivated")
}
