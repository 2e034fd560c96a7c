package closing

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// GetAverageCost returns one average cost row.
func (s *Service) GetAverageCost(ctx context.Context, id int64) (AverageCost, error) {
	ac, err := s.repo.GetAverageCost(ctx, id)
	return ac, notFound(err, "average cost %d", id)
}

// ListAverageCosts returns average costs, newest month first.
func (s *Service) ListAverageCosts(ctx context.Context, filters AverageCostFilters) ([]AverageCost, error) {
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListAverageCosts(ctx, filters)
}

// CalculateAverageCost upserts the average cost of an input for a month.
// Totals left out are aggregated from the month's deliveries.
func (s *Service) CalculateAverageCost(ctx context.Context, input CalculateAverageCostInput) (AverageCost, error) {
	if input.ReferenceMonth.IsZero() {
		return AverageCost{}, shared.Validationf("reference month is required")
	}
	if _, err := s.inputRef(ctx, input.InputID); err != nil {
		return AverageCost{}, err
	}
	ac := AverageCost{InputID: input.InputID, ReferenceMonth: input.ReferenceMonth, Notes: deref(input.Notes)}
	if input.TotalQuantity == nil || input.TotalCost == nil {
		totals, err := s.repo.MonthTotals(ctx, input.ReferenceMonth, &input.InputID)
		if err != nil {
			return AverageCost{}, err
		}
		for _, t := range totals {
			if t.InputID == input.InputID {
				ac.TotalQuantity, ac.TotalCost = t.Quantity, t.Value
			}
		}
	}
	if input.TotalQuantity != nil {
		ac.TotalQuantity = *input.TotalQuantity
	}
	if input.TotalCost != nil {
		ac.TotalCost = *input.TotalCost
	}
	if ac.TotalQuantity.IsNegative() || ac.TotalCost.IsNegative() {
		return AverageCost{}, shared.Validationf("totals cannot be negative")
	}
	ac.UnitAverageCost = unitCost(ac.TotalCost, ac.TotalQuantity)
	if input.UnitAverageCost != nil {
		ac.UnitAverageCost = *input.UnitAverageCost
	}
	saved, err := s.repo.UpsertAverageCost(ctx, ac)
	if err != nil {
		return AverageCost{}, err
	}
	s.bump(ctx)
	s.record(ctx, "average_cost.calculate", "average_cost", saved.ID, map[string]any{
		"input_id": saved.InputID,
		"month":    saved.ReferenceMonth.String(),
	})
	return saved, nil
}

// RecalculateMonth rebuilds the average cost of every input registered in
// month from its deliveries.
func (s *Service) RecalculateMonth(ctx context.Context, month shared.Month) ([]AverageCost, error) {
	totals, err := s.repo.MonthTotals(ctx, month, nil)
	if err != nil {
		return nil, err
	}
	out := make([]AverageCost, 0, len(totals))
	for _, t := range totals {
		saved, err := s.repo.UpsertAverageCost(ctx, AverageCost{
			InputID:         t.InputID,
			ReferenceMonth:  month,
			TotalQuantity:   t.Quantity,
			TotalCost:       t.Value,
			UnitAverageCost: unitCost(t.Value, t.Quantity),
		})
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	if len(out) > 0 {
		s.bump(ctx)
	}
	return out, nil
}

// AverageCostReport lists an input's monthly average costs for a year and
// their unweighted mean. year 0 means the current year.
func (s *Service) AverageCostReport(ctx context.Context, inputID int64, year int) (AverageCostReport, error) {
	if inputID <= 0 {
		return AverageCostReport{}, shared.Validationf("input_id is required")
	}
	if year == 0 {
		year = s.now().Year()
	}
	load := func(ctx context.Context) (any, error) {
		return s.buildAverageCostReport(ctx, inputID, year)
	}
	if s.cache == nil {
		return s.buildAverageCostReport(ctx, inputID, year)
	}
	key, err := s.cache.BuildKey(ctx, "average-cost", strconv.FormatInt(inputID, 10), strconv.Itoa(year))
	if err != nil {
		return s.buildAverageCostReport(ctx, inputID, year)
	}
	var report AverageCostReport
	if err := s.cache.FetchJSON(ctx, key, &report, load); err != nil {
		return AverageCostReport{}, err
	}
	return report, nil
}

func (s *Service) buildAverageCostReport(ctx context.Context, inputID int64, year int) (AverageCostReport, error) {
	ref, err := s.inputRef(ctx, inputID)
	if err != nil {
		return AverageCostReport{}, err
	}
	rows, err := s.repo.AverageCostsForYear(ctx, inputID, year)
	if err != nil {
		return AverageCostReport{}, err
	}
	if rows == nil {
		rows = []AverageCost{}
	}
	return AverageCostReport{Input: ref, Year: year, Months: rows, AnnualAverage: unweightedMean(rows)}, nil
}

// unweightedMean averages unit costs without weighting by quantity.
func unweightedMean(rows []AverageCost) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.UnitAverageCost)
	}
	return sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(4)
}

// PriceTrend reports the unit prices of an input's deliveries between from
// and to and the variation from the first to the last.
func (s *Service) PriceTrend(ctx context.Context, inputID int64, from, to *shared.Date) (PriceTrend, error) {
	if inputID <= 0 {
		return PriceTrend{}, shared.Validationf("input_id is required")
	}
	if from == nil || to == nil {
		return PriceTrend{}, shared.Validationf("from and to are required")
	}
	if to.Before(from.Time) {
		return PriceTrend{}, shared.Validationf("to must not be before from")
	}
	ref, err := s.inputRef(ctx, inputID)
	if err != nil {
		return PriceTrend{}, err
	}
	entries, err := s.repo.PriceEntries(ctx, inputID, *from, *to)
	if err != nil {
		return PriceTrend{}, err
	}
	if entries == nil {
		entries = []PriceEntry{}
	}
	for i := range entries {
		entries[i].UnitPrice = unitCost(entries[i].TotalValue, entries[i].Quantity)
	}
	variation := priceVariation(entries)
	return PriceTrend{
		Input:     ref,
		From:      *from,
		To:        *to,
		Entries:   entries,
		Variation: variation,
		Trend:     trendOf(variation),
	}, nil
}

func priceVariation(entries []PriceEntry) decimal.Decimal {
	if len(entries) < 2 {
		return decimal.Zero
	}
	first, last := entries[0].UnitPrice, entries[len(entries)-1].UnitPrice
	if first.IsZero() {
		return decimal.Zero
	}
	return last.Sub(first).Div(first).Mul(hundred).Round(2)
}

func trendOf(variation decimal.Decimal) string {
	switch variation.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendStable
	}
}

func unitCost(value, qty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return decimal.Zero
	}
	return value.Div(qty).Round(4)
}

func (s *Service) inputRef(ctx context.Context, id int64) (InputRef, error) {
	ref, err := s.repo.InputRef(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return InputRef{}, shared.Validationf("input %d does not exist", id)
	}
	return ref, err
}
