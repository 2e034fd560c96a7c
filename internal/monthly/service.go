package monthly

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Lookup
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetRegistry(ctx context.Context, id int64) (Registry, error)
	ListRegistries(ctx context.Context, filters RegistryFilters) ([]Registry, error)
	StockPoints(ctx context.Context, inputID int64, year int) ([]StockPoint, error)
	LatestClosingStocks(ctx context.Context) ([]StockDrift, error)

	GetDelivery(ctx context.Context, id int64) (Delivery, error)
	ListDeliveries(ctx context.Context, registryID int64) ([]Delivery, error)

	GetSchedule(ctx context.Context, id int64) (FutureSchedule, error)
	ListSchedules(ctx context.Context, filters ScheduleFilters) ([]FutureSchedule, error)
	InsertSchedule(ctx context.Context, s FutureSchedule) (FutureSchedule, error)
	UpdateSchedule(ctx context.Context, s FutureSchedule) (FutureSchedule, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates monthly registries and the delivery ledger.
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

// postDelivery applies signed quantity and paid deltas to the registry and
// keeps closing = opening + delivered. With PropagateOverwrite the input's
// current stock is set to the new closing stock.
func postDelivery(ctx context.Context, tx TxRepository, reg *Registry, qtyDelta, paidDelta decimal.Decimal, propagation Propagation) error {
	reg.DeliveredQuantity = reg.DeliveredQuantity.Add(qtyDelta)
	reg.PaidQuantity = reg.PaidQuantity.Add(paidDelta)
	reg.ClosingStock = reg.OpeningStock.Add(reg.DeliveredQuantity)
	if err := tx.SaveRegistryTotals(ctx, *reg); err != nil {
		return err
	}
	if propagation == PropagateOverwrite {
		return tx.SetInputStock(ctx, reg.InputID, reg.ClosingStock)
	}
	return nil
}

// paidDelta returns the change in paid quantity when a delivery moves from
// (oldQty, oldPaid) to (newQty, newPaid).
func paidDelta(oldQty decimal.Decimal, oldPaid bool, newQty decimal.Decimal, newPaid bool) decimal.Decimal {
	switch {
	case oldPaid && !newPaid:
		return oldQty.Neg()
	case !oldPaid && newPaid:
		return newQty
	case oldPaid && newPaid:
		return newQty.Sub(oldQty)
	default:
		return decimal.Zero
	}
}

func lockedRegistry(id int64) error {
	return shared.Lockedf("registry %d is closed", id)
}

func duplicateRegistry(inputID int64, month shared.Month) error {
	return shared.Duplicatef("registry for input %d and month %s already exists", inputID, month)
}

func validPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

func checkRefs(ctx context.Context, l Lookup, invoiceID, contractID *int64) error {
	if invoiceID != nil {
		ok, err := l.InvoiceExists(ctx, *invoiceID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.Validationf("invoice %d does not exist", *invoiceID)
		}
	}
	if contractID != nil {
		ok, err := l.ContractExists(ctx, *contractID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.Validationf("contract %d does not exist", *contractID)
		}
	}
	return nil
}

func requireInput(ctx context.Context, l Lookup, id int64) error {
	ok, err := l.InputExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.Validationf("input %d does not exist", id)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func notFound(err error, format string, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return shared.NotFoundf(format, id)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decimalOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}
