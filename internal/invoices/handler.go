package invoices

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	supplierID, err := httpx.QueryInt64(r, "supplier_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	from, err := shared.QueryDate(r, "from")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := shared.QueryDate(r, "to")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), ListFilters{
		Number:     httpx.QueryString(r, "number"),
		SupplierID: supplierID,
		From:       from,
		To:         to,
		Status:     httpx.QueryString(r, "status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInvoiceInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateInvoiceInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
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
	httpx.Message(w, http.StatusOK, "invoice cancelled")
}

func (h *Handler) periodReport(w http.ResponseWriter, r *http.Request) {
	from, err := shared.QueryDate(r, "from")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := shared.QueryDate(r, "to")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if from == nil || to == nil {
		httpx.RespondError(w, shared.Validationf("from and to are required"))
		return
	}
	report, err := h.service.PeriodReport(r.Context(), *from, *to)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
