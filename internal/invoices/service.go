package invoices

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, filters ListFilters) ([]Invoice, error)
	SupplierTotals(ctx context.Context, from, to shared.Date) ([]SupplierTotal, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the invoice ledger. Every active item contributes its
// quantity to the input's current stock.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns an invoice with its items.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Invoice{}, shared.NotFoundf("invoice %d", id)
	}
	return inv, err
}

// List returns invoice headers.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Invoice, error) {
	if filters.Status != nil && *filters.Status != StatusActive && *filters.Status != StatusCancelled {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(filters.From.Time) {
		return nil, shared.Validationf("end date must not precede start date")
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.List(ctx, filters)
}

// Create registers an invoice and adds each item quantity to stock.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	if input.IssueDate.IsZero() {
		return Invoice{}, shared.Validationf("issue date is required")
	}
	items, total, err := buildItems(input.Items)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		Number:     strings.TrimSpace(input.Number),
		Series:     strings.TrimSpace(deref(input.Series)),
		IssueDate:  input.IssueDate,
		EntryDate:  shared.NewDate(s.now()),
		SupplierID: input.SupplierID,
		TotalValue: total,
		Status:     StatusActive,
		Notes:      deref(input.Notes),
		Items:      items,
	}
	if input.EntryDate != nil {
		inv.EntryDate = *input.EntryDate
	}
	if input.TotalValue != nil {
		inv.TotalValue = *input.TotalValue
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkReferences(ctx, tx, inv); err != nil {
			return err
		}
		if err := ensureNumberFree(ctx, tx, inv.Number, inv.Series, 0); err != nil {
			return err
		}
		id, err := tx.Insert(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		if err := tx.ReplaceItems(ctx, id, items); err != nil {
			return err
		}
		return applyStock(ctx, tx, items, decimal.NewFromInt(1))
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.create", inv)
	return s.Get(ctx, inv.ID)
}

// Update reverts the stock of the current items, applies the changes and
// posts the resulting items again.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInvoiceInput) (Invoice, error) {
	var updated Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return shared.NotFoundf("invoice %d", id)
		}
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return shared.Validationf("invoice %d is cancelled", id)
		}
		if err := applyStock(ctx, tx, inv.Items, decimal.NewFromInt(-1)); err != nil {
			return err
		}
		if input.Number != nil {
			inv.Number = strings.TrimSpace(*input.Number)
		}
		if input.Series != nil {
			inv.Series = strings.TrimSpace(*input.Series)
		}
		if input.IssueDate != nil {
			inv.IssueDate = *input.IssueDate
		}
		if input.EntryDate != nil {
			inv.EntryDate = *input.EntryDate
		}
		if input.SupplierID != nil {
			inv.SupplierID = *input.SupplierID
		}
		if input.Notes != nil {
			inv.Notes = *input.Notes
		}
		if input.Items != nil {
			items, total, err := buildItems(*input.Items)
			if err != nil {
				return err
			}
			inv.Items = items
			inv.TotalValue = total
		}
		if input.TotalValue != nil {
			inv.TotalValue = *input.TotalValue
		}
		if err := checkReferences(ctx, tx, inv); err != nil {
			return err
		}
		if err := ensureNumberFree(ctx, tx, inv.Number, inv.Series, inv.ID); err != nil {
			return err
		}
		if err := tx.UpdateHeader(ctx, inv); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, inv.ID, inv.Items); err != nil {
			return err
		}
		updated = inv
		return applyStock(ctx, tx, inv.Items, decimal.NewFromInt(1))
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.update", updated)
	return s.Get(ctx, id)
}

// Delete cancels the invoice and removes its items from stock. Cancelling an
// already cancelled invoice is a no-op.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var cancelled *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return shared.NotFoundf("invoice %d", id)
		}
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return nil
		}
		if err := applyStock(ctx, tx, inv.Items, decimal.NewFromInt(-1)); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		cancelled = &inv
		return nil
	})
	if err != nil {
		return err
	}
	if cancelled != nil {
		s.record(ctx, "invoice.cancel", *cancelled)
	}
	return nil
}

// PeriodReport totals active invoices per supplier between from and to.
func (s *Service) PeriodReport(ctx context.Context, from, to shared.Date) (PeriodReport, error) {
	if from.IsZero() || to.IsZero() {
		return PeriodReport{}, shared.Validationf("from and to are required")
	}
	if to.Before(from.Time) {
		return PeriodReport{}, shared.Validationf("end date must not precede start date")
	}
	totals, err := s.repo.SupplierTotals(ctx, from, to)
	if err != nil {
		return PeriodReport{}, err
	}
	report := PeriodReport{From: from, To: to, TotalValue: decimal.Zero, Suppliers: []SupplierTotal{}}
	for _, st := range totals {
		report.InvoiceCount += st.InvoiceCount
		report.TotalValue = report.TotalValue.Add(st.TotalValue)
		report.Suppliers = append(report.Suppliers, st)
	}
	return report, nil
}

func buildItems(inputs []ItemInput) ([]Item, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, shared.Validationf("invoice requires at least one item")
	}
	items := make([]Item, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		if !in.Quantity.IsPositive() {
			return nil, decimal.Zero, shared.Validationf("item %d: quantity must be positive", i+1)
		}
		if in.UnitValue.IsNegative() {
			return nil, decimal.Zero, shared.Validationf("item %d: unit value cannot be negative", i+1)
		}
		lineTotal, ok := shared.LineTotal(in.Quantity, in.UnitValue, in.TotalValue)
		if !ok {
			return nil, decimal.Zero, shared.Validationf("item %d: total %s does not match quantity × unit value", i+1, lineTotal)
		}
		items = append(items, Item{
			InputID:    in.InputID,
			Quantity:   in.Quantity,
			UnitValue:  in.UnitValue,
			TotalValue: lineTotal,
			Notes:      deref(in.Notes),
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func checkReferences(ctx context.Context, tx TxRepository, inv Invoice) error {
	ok, err := tx.SupplierExists(ctx, inv.SupplierID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.Validationf("supplier %d does not exist", inv.SupplierID)
	}
	for _, it := range inv.Items {
		ok, err := tx.InputExists(ctx, it.InputID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.Validationf("input %d does not exist", it.InputID)
		}
	}
	return nil
}

func ensureNumberFree(ctx context.Context, tx TxRepository, number, series string, selfID int64) error {
	id, err := tx.FindByNumber(ctx, number, series)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if id != selfID {
		return shared.Duplicatef("invoice %s/%s already registered", number, series)
	}
	return nil
}

func applyStock(ctx context.Context, tx TxRepository, items []Item, sign decimal.Decimal) error {
	for _, it := range items {
		if err := tx.AdjustStock(ctx, it.InputID, it.Quantity.Mul(sign)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, inv Invoice) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(inv.ID, 10),
		Meta: map[string]any{
			"number": inv.Number,
			"series": inv.Series,
			"total":  inv.TotalValue.String(),
			"items":  len(inv.Items),
		},
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
