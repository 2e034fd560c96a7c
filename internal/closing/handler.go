package closing

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler exposes closings, average costs, reports and analyses over HTTP.
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

func (h *Handler) listClosings(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := shared.QueryMonth(r, "month")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters := ClosingFilters{
		Status: httpx.QueryString(r, "status"),
		Month:  month,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if httpx.QueryString(r, "year") != nil {
		year, err := shared.QueryYear(r, "year", h.service.now())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filters.Year = &year
	}
	items, err := h.service.ListClosings(r.Context(), filters)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showClosing(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.GetClosing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createClosing(w http.ResponseWriter, r *http.Request) {
	var input CreateClosingInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateClosing(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) closeClosing(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CloseClosing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) reopenClosing(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.ReopenClosing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listAverageCosts(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.service.ListAverageCosts(r.Context(), AverageCostFilters{
		InputID: inputID,
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

func (h *Handler) showAverageCost(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ac, err := h.service.GetAverageCost(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ac)
}

func (h *Handler) calculateAverageCost(w http.ResponseWriter, r *http.Request) {
	var input CalculateAverageCostInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ac, err := h.service.CalculateAverageCost(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ac)
}

func (h *Handler) averageCostReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadAverageCostReport(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) averageCostXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadAverageCostReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteAverageCostXLSX(&buf, report); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=average-cost-%d-%d.xlsx", report.Input.ID, report.Year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) loadAverageCostReport(w http.ResponseWriter, r *http.Request) (AverageCostReport, bool) {
	inputID, err := httpx.QueryInt64(r, "input_id")
	if err != nil {
		httpx.RespondError(w, err)
		return AverageCostReport{}, false
	}
	if inputID == nil {
		httpx.RespondError(w, shared.Validationf("input_id is required"))
		return AverageCostReport{}, false
	}
	year, err := shared.QueryYear(r, "year", h.service.now())
	if err != nil {
		httpx.RespondError(w, err)
		return AverageCostReport{}, false
	}
	report, err := h.service.AverageCostReport(r.Context(), *inputID, year)
	if err != nil {
		h.fail(w, r, err)
		return AverageCostReport{}, false
	}
	return report, true
}

func (h *Handler) priceTrend(w http.ResponseWriter, r *http.Request) {
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
	trend, err := h.service.PriceTrend(r.Context(), *inputID, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trend)
}

func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
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
	items, err := h.service.ListAnalyses(r.Context(), AnalysisFilters{
		Kind:   httpx.QueryString(r, "kind"),
		From:   from,
		To:     to,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(items, page))
}

func (h *Handler) showAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.GetAnalysis(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var input AnalysisInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.CreateAnalysis(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) updateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateAnalysisInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.UpdateAnalysis(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAnalysis(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}
