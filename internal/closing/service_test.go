package closing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/platform/cache"
	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type registryRow struct {
	month  shared.Month
	status string
}

type memoryRepo struct {
	closings   map[int64]MonthClosing
	registries []registryRow
	costs      map[int64]AverageCost
	totals     []MonthTotals
	prices     []PriceEntry
	inputs     map[int64]InputRef
	analyses   map[int64]Analysis
	yearReads  int
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		closings: make(map[int64]MonthClosing),
		costs:    make(map[int64]AverageCost),
		inputs:   map[int64]InputRef{7: {ID: 7, Code: "RICE", Name: "Rice", UnitOfMeasure: "kg"}},
		analyses: make(map[int64]Analysis),
	}
}

type memoryTx struct {
	repo     *memoryRepo
	closings map[int64]MonthClosing
	regs     []registryRow
	nextID   int64
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r, closings: make(map[int64]MonthClosing), regs: append([]registryRow(nil), r.registries...), nextID: r.nextID}
	for k, v := range r.closings {
		tx.closings[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.closings, r.registries, r.nextID = tx.closings, tx.regs, tx.nextID
	return nil
}

func (t *memoryTx) InputExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.repo.inputs[id]
	return ok, nil
}

func (t *memoryTx) FindClosingByMonth(_ context.Context, month shared.Month) (int64, error) {
	for _, c := range t.closings {
		if c.ReferenceMonth.Equal(month.Time) {
			return c.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (t *memoryTx) GetClosingForUpdate(_ context.Context, id int64) (MonthClosing, error) {
	c, ok := t.closings[id]
	if !ok {
		return MonthClosing{}, ErrNotFound
	}
	return c, nil
}

func (t *memoryTx) InsertClosing(_ context.Context, c MonthClosing) (int64, error) {
	t.nextID++
	c.ID = t.nextID
	t.closings[c.ID] = c
	return c.ID, nil
}

func (t *memoryTx) InsertDetails(_ context.Context, closingID int64, details []Detail) error {
	c := t.closings[closingID]
	for _, d := range details {
		d.ClosingID = closingID
		c.Details = append(c.Details, d)
	}
	t.closings[closingID] = c
	return nil
}

func (t *memoryTx) SetClosingStatus(_ context.Context, id int64, status string) error {
	c := t.closings[id]
	c.Status = status
	t.closings[id] = c
	return nil
}

func (t *memoryTx) SetMonthRegistriesStatus(_ context.Context, month shared.Month, status string) (int64, error) {
	var n int64
	for i := range t.regs {
		if t.regs[i].month.Equal(month.Time) {
			t.regs[i].status = status
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) GetClosing(_ context.Context, id int64) (MonthClosing, error) {
	c, ok := r.closings[id]
	if !ok {
		return MonthClosing{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) ListClosings(_ context.Context, filters ClosingFilters) ([]MonthClosing, error) {
	var out []MonthClosing
	for _, c := range r.closings {
		if filters.Year != nil && c.ReferenceMonth.Year() != *filters.Year {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceMonth.After(out[j].ReferenceMonth.Time) })
	return out, nil
}

func (r *memoryRepo) GetAverageCost(_ context.Context, id int64) (AverageCost, error) {
	ac, ok := r.costs[id]
	if !ok {
		return AverageCost{}, ErrNotFound
	}
	return ac, nil
}

func (r *memoryRepo) ListAverageCosts(_ context.Context, _ AverageCostFilters) ([]AverageCost, error) {
	var out []AverageCost
	for _, ac := range r.costs {
		out = append(out, ac)
	}
	return out, nil
}

func (r *memoryRepo) AverageCostsForYear(_ context.Context, inputID int64, year int) ([]AverageCost, error) {
	r.yearReads++
	var out []AverageCost
	for _, ac := range r.costs {
		if ac.InputID == inputID && ac.ReferenceMonth.Year() == year {
			out = append(out, ac)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceMonth.Before(out[j].ReferenceMonth.Time) })
	return out, nil
}

func (r *memoryRepo) UpsertAverageCost(_ context.Context, ac AverageCost) (AverageCost, error) {
	for id, existing := range r.costs {
		if existing.InputID == ac.InputID && existing.ReferenceMonth.Equal(ac.ReferenceMonth.Time) {
			ac.ID = id
			r.costs[id] = ac
			return ac, nil
		}
	}
	r.nextID++
	ac.ID = r.nextID
	r.costs[ac.ID] = ac
	return ac, nil
}

func (r *memoryRepo) MonthTotals(_ context.Context, _ shared.Month, inputID *int64) ([]MonthTotals, error) {
	var out []MonthTotals
	for _, t := range r.totals {
		if inputID == nil || t.InputID == *inputID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepo) InputRef(_ context.Context, id int64) (InputRef, error) {
	ref, ok := r.inputs[id]
	if !ok {
		return InputRef{}, ErrNotFound
	}
	return ref, nil
}

func (r *memoryRepo) PriceEntries(_ context.Context, _ int64, _, _ shared.Date) ([]PriceEntry, error) {
	return append([]PriceEntry(nil), r.prices...), nil
}

func (r *memoryRepo) GetAnalysis(_ context.Context, id int64) (Analysis, error) {
	a, ok := r.analyses[id]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) ListAnalyses(_ context.Context, _ AnalysisFilters) ([]Analysis, error) {
	var out []Analysis
	for _, a := range r.analyses {
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryRepo) InsertAnalysis(_ context.Context, a Analysis) (Analysis, error) {
	r.nextID++
	a.ID = r.nextID
	r.analyses[a.ID] = a
	return a, nil
}

func (r *memoryRepo) UpdateAnalysis(_ context.Context, a Analysis) (Analysis, error) {
	r.analyses[a.ID] = a
	return a, nil
}

func (r *memoryRepo) DeleteAnalysis(_ context.Context, id int64) error {
	if _, ok := r.analyses[id]; !ok {
		return ErrNotFound
	}
	delete(r.analyses, id)
	return nil
}

func month(y int, m time.Month) shared.Month {
	return shared.MonthOf(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryRepo()
	svc := NewService(repo, nil, cache.NewLocker(client, time.Second, nil), cache.NewVersioned(client, "reports", 10*time.Minute))
	svc.WithNow(func() time.Time { return time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC) })
	return svc, repo, client
}

func TestCreateClosingClosesRegistriesAndRejectsDuplicate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	march := month(2024, time.March)
	repo.registries = []registryRow{{march, monthly.RegistryOpen}, {march, monthly.RegistryOpen}, {month(2024, time.April), monthly.RegistryOpen}}

	c, err := svc.CreateClosing(ctx, CreateClosingInput{
		ReferenceMonth:     march,
		TotalPurchaseValue: decPtr("1500"),
		TotalQuantity:      decPtr("300"),
		OverallAverageCost: decPtr("5"),
		Details:            []DetailInput{{InputID: 7, Quantity: decPtr("300"), TotalValue: decPtr("1500"), AverageCost: decPtr("5")}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusClosed, c.Status)
	require.Len(t, c.Details, 1)
	require.True(t, c.TotalPurchaseValue.Equal(dec("1500")))
	require.Equal(t, "2024-04-02", c.ClosingDate.String())
	require.Equal(t, monthly.RegistryClosed, repo.registries[0].status)
	require.Equal(t, monthly.RegistryClosed, repo.registries[1].status)
	require.Equal(t, monthly.RegistryOpen, repo.registries[2].status)

	_, err = svc.CreateClosing(ctx, CreateClosingInput{ReferenceMonth: march})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Len(t, repo.closings, 1)
}

func TestCreateClosingRejectsUnknownInput(t *testing.T) {
	svc, repo, _ := newTestService(t)
	_, err := svc.CreateClosing(context.Background(), CreateClosingInput{
		ReferenceMonth: month(2024, time.March),
		Details:        []DetailInput{{InputID: 99}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.closings)
}

func TestCloseAndReopenCascadeAndAreIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	march := month(2024, time.March)
	repo.registries = []registryRow{{march, monthly.RegistryOpen}}

	c, err := svc.CreateClosing(ctx, CreateClosingInput{ReferenceMonth: march})
	require.NoError(t, err)

	reopened, err := svc.ReopenClosing(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReopened, reopened.Status)
	require.Equal(t, monthly.RegistryOpen, repo.registries[0].status)

	again, err := svc.ReopenClosing(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReopened, again.Status)

	closed, err := svc.CloseClosing(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.Equal(t, monthly.RegistryClosed, repo.registries[0].status)

	_, err = svc.CloseClosing(ctx, 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestClosingLockContention(t *testing.T) {
	svc, repo, client := newTestService(t)
	ctx := context.Background()
	march := month(2024, time.March)

	other := cache.NewLocker(client, time.Minute, nil)
	release, err := other.Obtain(ctx, shared.ClosingLockKey(march.Time))
	require.NoError(t, err)

	_, err = svc.CreateClosing(ctx, CreateClosingInput{ReferenceMonth: march})
	require.ErrorIs(t, err, httpx.ErrLocked)
	require.Empty(t, repo.closings)

	release()
	_, err = svc.CreateClosing(ctx, CreateClosingInput{ReferenceMonth: march})
	require.NoError(t, err)
}

func TestAverageCostReportUsesUnweightedMean(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	repo.costs[1] = AverageCost{ID: 1, InputID: 7, ReferenceMonth: month(2024, time.January), TotalQuantity: dec("1000"), TotalCost: dec("2000"), UnitAverageCost: dec("2")}
	repo.costs[2] = AverageCost{ID: 2, InputID: 7, ReferenceMonth: month(2024, time.February), TotalQuantity: dec("1"), TotalCost: dec("4"), UnitAverageCost: dec("4")}
	repo.costs[3] = AverageCost{ID: 3, InputID: 7, ReferenceMonth: month(2023, time.December), UnitAverageCost: dec("100")}
	repo.nextID = 3

	report, err := svc.AverageCostReport(ctx, 7, 2024)
	require.NoError(t, err)
	require.Len(t, report.Months, 2)
	require.True(t, report.AnnualAverage.Equal(dec("3")), "annual %s", report.AnnualAverage)
	require.Equal(t, "RICE", report.Input.Code)

	empty, err := svc.AverageCostReport(ctx, 7, 2020)
	require.NoError(t, err)
	require.True(t, empty.AnnualAverage.IsZero())
	require.NotNil(t, empty.Months)

	_, err = svc.AverageCostReport(ctx, 99, 2024)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.AverageCostReport(ctx, 0, 2024)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAverageCostReportCacheInvalidatedByCalculation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	repo.totals = []MonthTotals{{InputID: 7, Quantity: dec("10"), Value: dec("25")}}

	_, err := svc.CalculateAverageCost(ctx, CalculateAverageCostInput{InputID: 7, ReferenceMonth: month(2024, time.March)})
	require.NoError(t, err)

	first, err := svc.AverageCostReport(ctx, 7, 0)
	require.NoError(t, err)
	require.Equal(t, 2024, first.Year)
	require.True(t, first.AnnualAverage.Equal(dec("2.5")))
	_, err = svc.AverageCostReport(ctx, 7, 2024)
	require.NoError(t, err)
	require.Equal(t, 1, repo.yearReads)

	ac, err := svc.CalculateAverageCost(ctx, CalculateAverageCostInput{
		InputID:        7,
		ReferenceMonth: month(2024, time.March),
		TotalQuantity:  decPtr("10"),
		TotalCost:      decPtr("40"),
	})
	require.NoError(t, err)
	require.True(t, ac.UnitAverageCost.Equal(dec("4")))
	require.Len(t, repo.costs, 1)

	second, err := svc.AverageCostReport(ctx, 7, 2024)
	require.NoError(t, err)
	require.True(t, second.AnnualAverage.Equal(dec("4")))
	require.Equal(t, 2, repo.yearReads)
}

func TestRecalculateMonthHandlesZeroQuantity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.inputs[8] = InputRef{ID: 8, Code: "OIL"}
	repo.totals = []MonthTotals{
		{InputID: 7, Quantity: dec("3"), Value: dec("10")},
		{InputID: 8, Quantity: decimal.Zero, Value: decimal.Zero},
	}
	rows, err := svc.RecalculateMonth(context.Background(), month(2024, time.March))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].UnitAverageCost.Equal(dec("3.3333")))
	require.True(t, rows[1].UnitAverageCost.IsZero())
}

func TestPriceTrend(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	from := shared.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	to := shared.NewDate(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))

	repo.prices = []PriceEntry{
		{Quantity: dec("10"), TotalValue: dec("20")},
		{Quantity: dec("0"), TotalValue: dec("5")},
		{Quantity: dec("10"), TotalValue: dec("25")},
	}
	trend, err := svc.PriceTrend(ctx, 7, &from, &to)
	require.NoError(t, err)
	require.True(t, trend.Entries[1].UnitPrice.IsZero())
	require.True(t, trend.Variation.Equal(dec("25")), "variation %s", trend.Variation)
	require.Equal(t, TrendUp, trend.Trend)

	repo.prices = repo.prices[:1]
	trend, err = svc.PriceTrend(ctx, 7, &from, &to)
	require.NoError(t, err)
	require.Equal(t, TrendStable, trend.Trend)

	repo.prices = []PriceEntry{{Quantity: dec("1"), TotalValue: dec("4")}, {Quantity: dec("1"), TotalValue: dec("3")}}
	trend, err = svc.PriceTrend(ctx, 7, &from, &to)
	require.NoError(t, err)
	require.Equal(t, TrendDown, trend.Trend)

	_, err = svc.PriceTrend(ctx, 7, &to, &from)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.PriceTrend(ctx, 7, nil, &to)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAnalysesValidateDates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	start := shared.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end := shared.NewDate(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))

	_, err := svc.CreateAnalysis(ctx, AnalysisInput{Title: "Q1", Kind: "price", StartDate: end, EndDate: start})
	require.ErrorIs(t, err, httpx.ErrValidation)

	a, err := svc.CreateAnalysis(ctx, AnalysisInput{Title: "Q1", Kind: "price", StartDate: start, EndDate: end, Parameters: json.RawMessage(`{"input_id":7}`)})
	require.NoError(t, err)

	bad := json.RawMessage(`{`)
	_, err = svc.UpdateAnalysis(ctx, a.ID, UpdateAnalysisInput{Results: &bad})
	require.ErrorIs(t, err, httpx.ErrValidation)

	title := "Q1 review"
	updated, err := svc.UpdateAnalysis(ctx, a.ID, UpdateAnalysisInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Q1 review", updated.Title)

	require.NoError(t, svc.DeleteAnalysis(ctx, a.ID))
	require.Empty(t, repo.analyses)
	require.ErrorIs(t, svc.DeleteAnalysis(ctx, a.ID), httpx.ErrNotFound)
}

func TestWriteAverageCostXLSX(t *testing.T) {
	report := AverageCostReport{
		Input: InputRef{ID: 7, Code: "RICE", Name: "Rice", UnitOfMeasure: "kg"},
		Year:  2024,
		Months: []AverageCost{
			{ReferenceMonth: month(2024, time.January), TotalQuantity: dec("10"), TotalCost: dec("20"), UnitAverageCost: dec("2")},
		},
		AnnualAverage: dec("2"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAverageCostXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(reportSheet, "A4")
	require.NoError(t, err)
	require.Equal(t, "2024-01", v)
	v, err = f.GetCellValue(reportSheet, "A6")
	require.NoError(t, err)
	require.Equal(t, "Annual average", v)
}

func TestHandlerReports(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.costs[1] = AverageCost{ID: 1, InputID: 7, ReferenceMonth: month(2024, time.January), UnitAverageCost: dec("2")}
	repo.nextID = 1

	router := chi.NewRouter()
	router.Route("/closings", NewHandler(nil, svc).MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closings/reports/average-cost?input_id=7&year=2024", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"annual_average":"2"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closings/reports/average-cost.xlsx?input_id=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/vnd.openxmlformats"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closings/reports/average-cost", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/closings/", strings.NewReader(`{"reference_month":"2024-03"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/closings/", strings.NewReader(`{"reference_month":"2024-03"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
