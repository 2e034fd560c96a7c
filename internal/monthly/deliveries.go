package monthly

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetDelivery returns one delivery.
func (s *Service) GetDelivery(ctx context.Context, id int64) (Delivery, error) {
	d, err := s.repo.GetDelivery(ctx, id)
	return d, notFound(err, "delivery %d", id)
}

// ListDeliveries returns the deliveries of a registry.
func (s *Service) ListDeliveries(ctx context.Context, registryID int64) ([]Delivery, error) {
	if _, err := s.GetRegistry(ctx, registryID); err != nil {
		return nil, err
	}
	return s.repo.ListDeliveries(ctx, registryID)
}

// CreateDelivery records a delivery and posts it to its registry and input.
func (s *Service) CreateDelivery(ctx context.Context, input CreateDeliveryInput) (Delivery, error) {
	var created Delivery
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reg, err := tx.GetRegistryForUpdate(ctx, input.RegistryID)
		if errors.Is(err, ErrNotFound) {
			return shared.Validationf("registry %d does not exist", input.RegistryID)
		}
		if err != nil {
			return err
		}
		if reg.Closed() {
			return lockedRegistry(reg.ID)
		}
		created, err = insertDelivery(ctx, tx, &reg, input.DeliveryInput, PropagateOverwrite)
		return err
	})
	if err != nil {
		return Delivery{}, err
	}
	s.record(ctx, "delivery.create", "delivery", created.ID, map[string]any{
		"registry_id": created.RegistryID,
		"quantity":    created.Quantity.String(),
	})
	return created, nil
}

// insertDelivery validates and stores one delivery, then posts it.
func insertDelivery(ctx context.Context, tx TxRepository, reg *Registry, in DeliveryInput, propagation Propagation) (Delivery, error) {
	d := Delivery{
		RegistryID:    reg.ID,
		InvoiceID:     in.InvoiceID,
		ContractID:    in.ContractID,
		DeliveryDate:  in.DeliveryDate,
		Quantity:      in.Quantity,
		TotalValue:    decimalOr(in.TotalValue, decimal.Zero),
		PaymentStatus: PaymentPending,
		Notes:         deref(in.Notes),
	}
	if in.PaymentStatus != nil {
		d.PaymentStatus = *in.PaymentStatus
	}
	if err := validateDelivery(d); err != nil {
		return Delivery{}, err
	}
	if err := checkRefs(ctx, tx, d.InvoiceID, d.ContractID); err != nil {
		return Delivery{}, err
	}
	id, err := tx.InsertDelivery(ctx, d)
	if err != nil {
		return Delivery{}, err
	}
	d.ID = id
	paid := decimal.Zero
	if d.Paid() {
		paid = d.Quantity
	}
	if err := postDelivery(ctx, tx, reg, d.Quantity, paid, propagation); err != nil {
		return Delivery{}, err
	}
	return d, nil
}

// UpdateDelivery applies the supplied fields and posts the quantity and paid deltas.
func (s *Service) UpdateDelivery(ctx context.Context, id int64, input UpdateDeliveryInput) (Delivery, error) {
	var updated Delivery
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "delivery %d", id)
		}
		reg, err := tx.GetRegistryForUpdate(ctx, d.RegistryID)
		if err != nil {
			return err
		}
		if reg.Closed() {
			return lockedRegistry(reg.ID)
		}
		oldQty, oldPaid := d.Quantity, d.Paid()

		if input.DeliveryDate != nil {
			d.DeliveryDate = *input.DeliveryDate
		}
		if input.Quantity != nil {
			d.Quantity = *input.Quantity
		}
		if input.TotalValue != nil {
			d.TotalValue = *input.TotalValue
		}
		if input.PaymentStatus != nil {
			d.PaymentStatus = *input.PaymentStatus
		}
		if input.InvoiceID != nil {
			d.InvoiceID = input.InvoiceID
		}
		if input.ContractID != nil {
			d.ContractID = input.ContractID
		}
		if input.Notes != nil {
			d.Notes = *input.Notes
		}
		if err := validateDelivery(d); err != nil {
			return err
		}
		if err := checkRefs(ctx, tx, input.InvoiceID, input.ContractID); err != nil {
			return err
		}
		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}
		qtyDelta := d.Quantity.Sub(oldQty)
		if err := postDelivery(ctx, tx, &reg, qtyDelta, paidDelta(oldQty, oldPaid, d.Quantity, d.Paid()), PropagateOverwrite); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}
	s.record(ctx, "delivery.update", "delivery", id, map[string]any{
		"registry_id": updated.RegistryID,
		"quantity":    updated.Quantity.String(),
		"status":      updated.PaymentStatus,
	})
	return updated, nil
}

// DeleteDelivery reverses the delivery's posting and removes it.
func (s *Service) DeleteDelivery(ctx context.Context, id int64) error {
	var removed Delivery
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "delivery %d", id)
		}
		reg, err := tx.GetRegistryForUpdate(ctx, d.RegistryID)
		if err != nil {
			return err
		}
		if reg.Closed() {
			return lockedRegistry(reg.ID)
		}
		paid := decimal.Zero
		if d.Paid() {
			paid = d.Quantity.Neg()
		}
		if err := postDelivery(ctx, tx, &reg, d.Quantity.Neg(), paid, PropagateOverwrite); err != nil {
			return err
		}
		removed = d
		return tx.DeleteDelivery(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "delivery.delete", "delivery", id, map[string]any{
		"registry_id": removed.RegistryID,
		"quantity":    removed.Quantity.String(),
	})
	return nil
}

func validateDelivery(d Delivery) error {
	if !d.Quantity.IsPositive() {
		return shared.Validationf("delivery quantity must be positive")
	}
	if d.DeliveryDate.IsZero() {
		return shared.Validationf("delivery date is required")
	}
	if d.TotalValue.IsNegative() {
		return shared.Validationf("total value cannot be negative")
	}
	if !validPaymentStatus(d.PaymentStatus) {
		return shared.Validationf("unknown payment status %q", d.PaymentStatus)
	}
	return nil
}
