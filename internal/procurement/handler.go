package procurement

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler manages procurement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.Fail(h.logger, w, r, err)
}

func (h *Handler) listContracts(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.service.ListContracts(r.Context(), ContractFilters{
		Number:     httpx.QueryString(r, "number"),
		SupplierID: supplierID,
		Status:     httpx.QueryString(r, "status"),
		From:       from,
		To:         to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showContract(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.GetContract(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createContract(w http.ResponseWriter, r *http.Request) {
	var input CreateContractInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateContract(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateContract(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateContractInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateContract(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteContract(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteContract(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "contract cancelled")
}

func (h *Handler) contractSchedule(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.service.Schedule(r.Context(), *from, *to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inputID, err := httpx.QueryInt64(r, "input_id")
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
	items, err := h.service.ListQuotations(r.Context(), QuotationFilters{
		InputID:    inputID,
		SupplierID: supplierID,
		From:       from,
		To:         to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	var input QuotationInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.CreateQuotation(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) updateQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateQuotationInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.UpdateQuotation(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) deleteQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteQuotation(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) priceEvolution(w http.ResponseWriter, r *http.Request) {
	inputID, err := httpx.QueryInt64(r, "input_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if inputID == nil {
		httpx.RespondError(w, shared.Validationf("input_id is required"))
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
	evo, err := h.service.PriceEvolution(r.Context(), *inputID, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, evo)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inputID, err := httpx.QueryInt64(r, "input_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := shared.QueryMonth(r, "month")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListPlans(r.Context(), PlanFilters{
		InputID: inputID,
		Status:  httpx.QueryString(r, "status"),
		Month:   month,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showPlan(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var input PlanInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreatePlan(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdatePlanInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdatePlan(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "purchase plan cancelled")
}
