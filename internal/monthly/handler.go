package monthly

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler exposes registries, deliveries and future schedules over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.Fail(h.logger, w, r, err)
}

func (h *Handler) listRegistries(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.service.ListRegistries(r.Context(), RegistryFilters{
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

func (h *Handler) showRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.GetRegistry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) createRegistry(w http.ResponseWriter, r *http.Request) {
	var input CreateRegistryInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.CreateRegistry(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *Handler) updateRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateRegistryInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.UpdateRegistry(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) deleteRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRegistry(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "registry deleted")
}

func (h *Handler) closeRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.CloseRegistry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) reopenRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.ReopenRegistry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) stockEvolution(w http.ResponseWriter, r *http.Request) {
	inputID, err := httpx.QueryInt64(r, "input_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if inputID == nil {
		httpx.RespondError(w, shared.Validationf("input_id is required"))
		return
	}
	year, err := shared.QueryYear(r, "year", h.service.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	evo, err := h.service.StockEvolution(r.Context(), *inputID, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, evo)
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListDeliveries(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []Delivery{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input DeliveryInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.CreateDelivery(r.Context(), CreateDeliveryInput{RegistryID: id, DeliveryInput: input})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) showDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) updateDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateDeliveryInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.UpdateDelivery(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deleteDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteDelivery(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "delivery deleted")
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
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
	contractID, err := httpx.QueryInt64(r, "contract_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := shared.QueryMonth(r, "month")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListSchedules(r.Context(), ScheduleFilters{
		InputID:    inputID,
		ContractID: contractID,
		Status:     httpx.QueryString(r, "status"),
		Month:      month,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fs, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fs)
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var input ScheduleInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	fs, err := h.service.CreateSchedule(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fs)
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateScheduleInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	fs, err := h.service.UpdateSchedule(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fs)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "schedule cancelled")
}
