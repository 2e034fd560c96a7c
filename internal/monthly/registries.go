package monthly

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetRegistry returns a registry with its deliveries.
func (s *Service) GetRegistry(ctx context.Context, id int64) (Registry, error) {
	reg, err := s.repo.GetRegistry(ctx, id)
	if err != nil {
		return Registry{}, notFound(err, "registry %d", id)
	}
	reg.Deliveries, err = s.repo.ListDeliveries(ctx, id)
	return reg, err
}

// ListRegistries returns registries, newest month first.
func (s *Service) ListRegistries(ctx context.Context, filters RegistryFilters) ([]Registry, error) {
	if filters.Status != nil && *filters.Status != RegistryOpen && *filters.Status != RegistryClosed {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListRegistries(ctx, filters)
}

// CreateRegistry opens a registry for (input, month) and posts the embedded
// deliveries. The input's stock is then overwritten with the registry's own
// closing stock as supplied or derived before the embedded deliveries, so the
// registry propagation wins over the per-delivery overwrites.
func (s *Service) CreateRegistry(ctx context.Context, input CreateRegistryInput) (Registry, error) {
	if input.ReferenceMonth.IsZero() {
		return Registry{}, shared.Validationf("reference month is required")
	}
	reg := Registry{
		InputID:            input.InputID,
		ReferenceMonth:     input.ReferenceMonth,
		OpeningStock:       decimalOr(input.OpeningStock, decimal.Zero),
		DeliveredQuantity:  decimalOr(input.DeliveredQuantity, decimal.Zero),
		ContractedQuantity: decimalOr(input.ContractedQuantity, decimal.Zero),
		PaidQuantity:       decimalOr(input.PaidQuantity, decimal.Zero),
		Status:             RegistryOpen,
		Notes:              deref(input.Notes),
	}
	reg.ClosingStock = decimalOr(input.ClosingStock, reg.OpeningStock.Add(reg.DeliveredQuantity))
	registryStock := reg.ClosingStock

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireInput(ctx, tx, reg.InputID); err != nil {
			return err
		}
		if _, err := tx.FindRegistry(ctx, reg.InputID, reg.ReferenceMonth); err == nil {
			return duplicateRegistry(reg.InputID, reg.ReferenceMonth)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		id, err := tx.InsertRegistry(ctx, reg)
		if err != nil {
			return err
		}
		reg.ID = id
		for _, d := range input.Deliveries {
			if _, err := insertDelivery(ctx, tx, &reg, d, PropagateDeferred); err != nil {
				return err
			}
		}
		return tx.SetInputStock(ctx, reg.InputID, registryStock)
	})
	if err != nil {
		return Registry{}, err
	}
	s.record(ctx, "registry.create", "monthly_registry", reg.ID, map[string]any{
		"input_id": reg.InputID,
		"month":    reg.ReferenceMonth.String(),
	})
	return s.GetRegistry(ctx, reg.ID)
}

// UpdateRegistry rewrites an open registry. Every child delivery is removed
// and the supplied ones are posted again; the input's stock then moves by the
// change in closing stock.
func (s *Service) UpdateRegistry(ctx context.Context, id int64, input UpdateRegistryInput) (Registry, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reg, err := tx.GetRegistryForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "registry %d", id)
		}
		if reg.Closed() {
			return lockedRegistry(reg.ID)
		}
		oldClosing := reg.ClosingStock

		keyChanged := false
		if input.InputID != nil && *input.InputID != reg.InputID {
			if err := requireInput(ctx, tx, *input.InputID); err != nil {
				return err
			}
			reg.InputID = *input.InputID
			keyChanged = true
		}
		if input.ReferenceMonth != nil && !input.ReferenceMonth.Equal(reg.ReferenceMonth.Time) {
			reg.ReferenceMonth = *input.ReferenceMonth
			keyChanged = true
		}
		if keyChanged {
			other, err := tx.FindRegistry(ctx, reg.InputID, reg.ReferenceMonth)
			if err == nil && other != reg.ID {
				return duplicateRegistry(reg.InputID, reg.ReferenceMonth)
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		prevStock, err := tx.InputStockForUpdate(ctx, reg.InputID)
		if err != nil {
			return err
		}

		if input.OpeningStock != nil {
			reg.OpeningStock = *input.OpeningStock
		}
		if input.ContractedQuantity != nil {
			reg.ContractedQuantity = *input.ContractedQuantity
		}
		if input.Notes != nil {
			reg.Notes = *input.Notes
		}
		if err := tx.DeleteRegistryDeliveries(ctx, reg.ID); err != nil {
			return err
		}
		reg.DeliveredQuantity = decimalOr(input.DeliveredQuantity, decimal.Zero)
		reg.PaidQuantity = decimalOr(input.PaidQuantity, decimal.Zero)
		reg.ClosingStock = reg.OpeningStock.Add(reg.DeliveredQuantity)
		for _, d := range input.Deliveries {
			if _, err := insertDelivery(ctx, tx, &reg, d, PropagateDeferred); err != nil {
				return err
			}
		}
		if input.ClosingStock != nil {
			reg.ClosingStock = *input.ClosingStock
		}
		if err := tx.UpdateRegistry(ctx, reg); err != nil {
			return err
		}
		return tx.SetInputStock(ctx, reg.InputID, prevStock.Add(reg.ClosingStock.Sub(oldClosing)))
	})
	if err != nil {
		return Registry{}, err
	}
	s.record(ctx, "registry.update", "monthly_registry", id, nil)
	return s.GetRegistry(ctx, id)
}

// DeleteRegistry removes an open registry and its deliveries.
func (s *Service) DeleteRegistry(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reg, err := tx.GetRegistryForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "registry %d", id)
		}
		if reg.Closed() {
			return lockedRegistry(reg.ID)
		}
		return tx.DeleteRegistry(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "registry.delete", "monthly_registry", id, nil)
	return nil
}

// CloseRegistry freezes the registry. Closing a closed registry is a no-op.
func (s *Service) CloseRegistry(ctx context.Context, id int64) (Registry, error) {
	return s.setRegistryStatus(ctx, id, RegistryClosed)
}

// ReopenRegistry unfreezes the registry. Reopening an open registry is a no-op.
func (s *Service) ReopenRegistry(ctx context.Context, id int64) (Registry, error) {
	return s.setRegistryStatus(ctx, id, RegistryOpen)
}

func (s *Service) setRegistryStatus(ctx context.Context, id int64, status string) (Registry, error) {
	changed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reg, err := tx.GetRegistryForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "registry %d", id)
		}
		if reg.Status == status {
			return nil
		}
		changed = true
		return tx.SetRegistryStatus(ctx, id, status)
	})
	if err != nil {
		return Registry{}, err
	}
	if changed {
		s.record(ctx, "registry."+status, "monthly_registry", id, nil)
	}
	return s.GetRegistry(ctx, id)
}

// StockEvolution returns opening, delivered and closing stock of an input
// for each registered month of year.
func (s *Service) StockEvolution(ctx context.Context, inputID int64, year int) (StockEvolution, error) {
	if inputID <= 0 {
		return StockEvolution{}, shared.Validationf("input_id is required")
	}
	if year == 0 {
		year = s.now().Year()
	}
	points, err := s.repo.StockPoints(ctx, inputID, year)
	if err != nil {
		return StockEvolution{}, err
	}
	if points == nil {
		points = []StockPoint{}
	}
	return StockEvolution{InputID: inputID, Year: year, Points: points}, nil
}
