package procurement

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetQuotation returns one quotation.
func (s *Service) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	q, err := s.repo.GetQuotation(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Quotation{}, shared.NotFoundf("quotation %d", id)
	}
	return q, err
}

// ListQuotations returns quotations newest first.
func (s *Service) ListQuotations(ctx context.Context, filters QuotationFilters) ([]Quotation, error) {
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListQuotations(ctx, filters)
}

// CreateQuotation stores a quotation after checking its references.
func (s *Service) CreateQuotation(ctx context.Context, input QuotationInput) (Quotation, error) {
	q := Quotation{
		QuotedOn:   input.QuotedOn,
		SupplierID: input.SupplierID,
		InputID:    input.InputID,
		ContractID: input.ContractID,
		UnitPrice:  input.UnitPrice,
		Quantity:   input.Quantity,
		LeadDays:   input.LeadDays,
		ValidUntil: input.ValidUntil,
		Notes:      deref(input.Notes),
	}
	if err := s.checkQuotation(ctx, q); err != nil {
		return Quotation{}, err
	}
	created, err := s.repo.InsertQuotation(ctx, q)
	if err != nil {
		return Quotation{}, err
	}
	s.record(ctx, "quotation.create", "quotation", created.ID, map[string]any{"input_id": created.InputID})
	return created, nil
}

// UpdateQuotation applies the supplied fields.
func (s *Service) UpdateQuotation(ctx context.Context, id int64, input UpdateQuotationInput) (Quotation, error) {
	q, err := s.GetQuotation(ctx, id)
	if err != nil {
		return Quotation{}, err
	}
	if input.QuotedOn != nil {
		q.QuotedOn = *input.QuotedOn
	}
	if input.SupplierID != nil {
		q.SupplierID = *input.SupplierID
	}
	if input.InputID != nil {
		q.InputID = *input.InputID
	}
	if input.ContractID != nil {
		q.ContractID = input.ContractID
	}
	if input.UnitPrice != nil {
		q.UnitPrice = *input.UnitPrice
	}
	if input.Quantity != nil {
		q.Quantity = input.Quantity
	}
	if input.LeadDays != nil {
		q.LeadDays = input.LeadDays
	}
	if input.ValidUntil != nil {
		q.ValidUntil = input.ValidUntil
	}
	if input.Notes != nil {
		q.Notes = *input.Notes
	}
	if err := s.checkQuotation(ctx, q); err != nil {
		return Quotation{}, err
	}
	updated, err := s.repo.UpdateQuotation(ctx, q)
	if errors.Is(err, ErrNotFound) {
		return Quotation{}, shared.NotFoundf("quotation %d", id)
	}
	if err != nil {
		return Quotation{}, err
	}
	s.record(ctx, "quotation.update", "quotation", id, nil)
	return updated, nil
}

// DeleteQuotation removes a quotation.
func (s *Service) DeleteQuotation(ctx context.Context, id int64) error {
	err := s.repo.DeleteQuotation(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return shared.NotFoundf("quotation %d", id)
	}
	if err != nil {
		return err
	}
	s.record(ctx, "quotation.delete", "quotation", id, nil)
	return nil
}

// PriceEvolution returns the quoted unit prices of an input in date order.
func (s *Service) PriceEvolution(ctx context.Context, inputID int64, from, to *shared.Date) (PriceEvolution, error) {
	if inputID <= 0 {
		return PriceEvolution{}, shared.Validationf("input_id is required")
	}
	if from != nil && to != nil && to.Before(from.Time) {
		return PriceEvolution{}, shared.Validationf("end date must not precede start date")
	}
	points, err := s.repo.PricePoints(ctx, inputID, from, to)
	if err != nil {
		return PriceEvolution{}, err
	}
	evo := PriceEvolution{InputID: inputID, Points: []PricePoint{}, Minimum: decimal.Zero, Maximum: decimal.Zero, Average: decimal.Zero}
	if len(points) == 0 {
		return evo, nil
	}
	evo.Points = points
	sum := decimal.Zero
	evo.Minimum, evo.Maximum = points[0].UnitPrice, points[0].UnitPrice
	for _, p := range points {
		sum = sum.Add(p.UnitPrice)
		evo.Minimum = decimal.Min(evo.Minimum, p.UnitPrice)
		evo.Maximum = decimal.Max(evo.Maximum, p.UnitPrice)
	}
	evo.Average = sum.Div(decimal.NewFromInt(int64(len(points)))).Round(4)
	return evo, nil
}

func (s *Service) checkQuotation(ctx context.Context, q Quotation) error {
	if q.QuotedOn.IsZero() {
		return shared.Validationf("quotation date is required")
	}
	if q.UnitPrice.IsNegative() {
		return shared.Validationf("unit price cannot be negative")
	}
	if q.Quantity != nil && !q.Quantity.IsPositive() {
		return shared.Validationf("quantity must be positive")
	}
	if q.LeadDays != nil && *q.LeadDays < 0 {
		return shared.Validationf("lead days cannot be negative")
	}
	if q.ValidUntil != nil && q.ValidUntil.Before(q.QuotedOn.Time) {
		return shared.Validationf("validity must not precede the quotation date")
	}
	if err := requireSupplier(ctx, s.repo, q.SupplierID); err != nil {
		return err
	}
	if err := requireInput(ctx, s.repo, q.InputID); err != nil {
		return err
	}
	return requireContract(ctx, s.repo, q.ContractID)
}
