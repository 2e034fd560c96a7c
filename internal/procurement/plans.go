package procurement

import (
	"context"
	"errors"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetPlan returns one purchase plan.
func (s *Service) GetPlan(ctx context.Context, id int64) (PurchasePlan, error) {
	p, err := s.repo.GetPlan(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return PurchasePlan{}, shared.NotFoundf("purchase plan %d", id)
	}
	return p, err
}

// ListPlans returns purchase plans newest month first.
func (s *Service) ListPlans(ctx context.Context, filters PlanFilters) ([]PurchasePlan, error) {
	if filters.Status != nil && !validPlanStatus(*filters.Status) {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListPlans(ctx, filters)
}

// CreatePlan stores a purchase plan.
func (s *Service) CreatePlan(ctx context.Context, input PlanInput) (PurchasePlan, error) {
	p := PurchasePlan{
		ReferenceMonth:    input.ReferenceMonth,
		InputID:           input.InputID,
		PlannedQuantity:   input.PlannedQuantity,
		PlannedUnitValue:  input.PlannedUnitValue,
		PlannedTotalValue: input.PlannedTotalValue,
		Status:            PlanPending,
		Notes:             deref(input.Notes),
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	if err := s.preparePlan(ctx, &p); err != nil {
		return PurchasePlan{}, err
	}
	created, err := s.repo.InsertPlan(ctx, p)
	if err != nil {
		return PurchasePlan{}, err
	}
	s.record(ctx, "purchase_plan.create", "purchase_plan", created.ID, map[string]any{"month": created.ReferenceMonth.String()})
	return created, nil
}

// UpdatePlan applies the supplied fields. A new quantity or unit value
// recomputes the planned total unless a total is supplied too.
func (s *Service) UpdatePlan(ctx context.Context, id int64, input UpdatePlanInput) (PurchasePlan, error) {
	p, err := s.GetPlan(ctx, id)
	if err != nil {
		return PurchasePlan{}, err
	}
	if input.ReferenceMonth != nil {
		p.ReferenceMonth = *input.ReferenceMonth
	}
	if input.InputID != nil {
		p.InputID = *input.InputID
	}
	if input.PlannedQuantity != nil || input.PlannedUnitValue != nil {
		p.PlannedTotalValue = nil
	}
	if input.PlannedQuantity != nil {
		p.PlannedQuantity = *input.PlannedQuantity
	}
	if input.PlannedUnitValue != nil {
		p.PlannedUnitValue = input.PlannedUnitValue
	}
	if input.PlannedTotalValue != nil {
		p.PlannedTotalValue = input.PlannedTotalValue
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	if input.Notes != nil {
		p.Notes = *input.Notes
	}
	if err := s.preparePlan(ctx, &p); err != nil {
		return PurchasePlan{}, err
	}
	updated, err := s.repo.UpdatePlan(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return PurchasePlan{}, shared.NotFoundf("purchase plan %d", id)
	}
	if err != nil {
		return PurchasePlan{}, err
	}
	s.record(ctx, "purchase_plan.update", "purchase_plan", id, nil)
	return updated, nil
}

// DeletePlan cancels a purchase plan.
func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	status := PlanCancelled
	_, err := s.UpdatePlan(ctx, id, UpdatePlanInput{Status: &status})
	return err
}

func (s *Service) preparePlan(ctx context.Context, p *PurchasePlan) error {
	if p.ReferenceMonth.IsZero() {
		return shared.Validationf("reference month is required")
	}
	if !p.PlannedQuantity.IsPositive() {
		return shared.Validationf("planned quantity must be positive")
	}
	if p.PlannedUnitValue != nil && p.PlannedUnitValue.IsNegative() {
		return shared.Validationf("planned unit value cannot be negative")
	}
	if !validPlanStatus(p.Status) {
		return shared.Validationf("unknown status %q", p.Status)
	}
	if p.PlannedUnitValue != nil {
		total, ok := shared.LineTotal(p.PlannedQuantity, *p.PlannedUnitValue, p.PlannedTotalValue)
		if !ok {
			return shared.Validationf("planned total %s does not match quantity × unit value", total)
		}
		p.PlannedTotalValue = &total
	}
	return requireInput(ctx, s.repo, p.InputID)
}

func validPlanStatus(status string) bool {
	switch status {
	case PlanPending, PlanApproved, PlanCancelled:
		return true
	}
	return false
}
