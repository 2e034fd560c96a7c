package closing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/platform/cache"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetClosing(ctx context.Context, id int64) (MonthClosing, error)
	ListClosings(ctx context.Context, filters ClosingFilters) ([]MonthClosing, error)

	GetAverageCost(ctx context.Context, id int64) (AverageCost, error)
	ListAverageCosts(ctx context.Context, filters AverageCostFilters) ([]AverageCost, error)
	AverageCostsForYear(ctx context.Context, inputID int64, year int) ([]AverageCost, error)
	UpsertAverageCost(ctx context.Context, ac AverageCost) (AverageCost, error)
	MonthTotals(ctx context.Context, month shared.Month, inputID *int64) ([]MonthTotals, error)

	InputRef(ctx context.Context, id int64) (InputRef, error)
	PriceEntries(ctx context.Context, inputID int64, from, to shared.Date) ([]PriceEntry, error)

	GetAnalysis(ctx context.Context, id int64) (Analysis, error)
	ListAnalyses(ctx context.Context, filters AnalysisFilters) ([]Analysis, error)
	InsertAnalysis(ctx context.Context, a Analysis) (Analysis, error)
	UpdateAnalysis(ctx context.Context, a Analysis) (Analysis, error)
	DeleteAnalysis(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Locker serialises work on one reference month.
type Locker interface {
	Obtain(ctx context.Context, key string) (func(), error)
}

// ReportCache stores built reports under a versioned namespace.
type ReportCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Service coordinates month-end closings, average costs and analyses.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	locker Locker
	cache  ReportCache
	now    func() time.Time
}

// NewService builds Service. locker and reports may be nil.
func NewService(repo RepositoryPort, audit AuditPort, locker Locker, reports ReportCache) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		locker: locker,
		cache:  reports,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GetClosing returns a closing with its details.
func (s *Service) GetClosing(ctx context.Context, id int64) (MonthClosing, error) {
	c, err := s.repo.GetClosing(ctx, id)
	return c, notFound(err, "closing %d", id)
}

// ListClosings returns closings, newest month first.
func (s *Service) ListClosings(ctx context.Context, filters ClosingFilters) ([]MonthClosing, error) {
	if filters.Status != nil && *filters.Status != StatusClosed && *filters.Status != StatusReopened {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListClosings(ctx, filters)
}

// CreateClosing stores the caller's totals and details for a month and
// closes every registry of that month.
func (s *Service) CreateClosing(ctx context.Context, input CreateClosingInput) (MonthClosing, error) {
	if input.ReferenceMonth.IsZero() {
		return MonthClosing{}, shared.Validationf("reference month is required")
	}
	c := MonthClosing{
		ReferenceMonth:     input.ReferenceMonth,
		ClosingDate:        shared.NewDate(s.now()),
		TotalPurchaseValue: decimalOr(input.TotalPurchaseValue),
		TotalQuantity:      decimalOr(input.TotalQuantity),
		OverallAverageCost: decimalOr(input.OverallAverageCost),
		Status:             StatusClosed,
		Notes:              deref(input.Notes),
	}
	if input.ClosingDate != nil {
		c.ClosingDate = *input.ClosingDate
	}
	details := make([]Detail, 0, len(input.Details))
	for _, d := range input.Details {
		details = append(details, Detail{
			InputID:     d.InputID,
			Quantity:    decimalOr(d.Quantity),
			TotalValue:  decimalOr(d.TotalValue),
			AverageCost: decimalOr(d.AverageCost),
			Notes:       deref(d.Notes),
		})
	}

	release, err := s.lock(ctx, c.ReferenceMonth)
	if err != nil {
		return MonthClosing{}, err
	}
	defer release()

	var closed int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindClosingByMonth(ctx, c.ReferenceMonth); err == nil {
			return shared.Duplicatef("closing for month %s already exists", c.ReferenceMonth)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		for _, d := range details {
			ok, err := tx.InputExists(ctx, d.InputID)
			if err != nil {
				return err
			}
			if !ok {
				return shared.Validationf("input %d does not exist", d.InputID)
			}
		}
		id, err := tx.InsertClosing(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		if err := tx.InsertDetails(ctx, id, details); err != nil {
			return err
		}
		closed, err = tx.SetMonthRegistriesStatus(ctx, c.ReferenceMonth, monthly.RegistryClosed)
		return err
	})
	if err != nil {
		return MonthClosing{}, err
	}
	s.bump(ctx)
	s.record(ctx, "closing.create", "month_closing", c.ID, map[string]any{
		"month":      c.ReferenceMonth.String(),
		"registries": closed,
	})
	return s.GetClosing(ctx, c.ID)
}

// CloseClosing marks the closing closed and closes the month's registries.
// Closing an already closed month is a no-op.
func (s *Service) CloseClosing(ctx context.Context, id int64) (MonthClosing, error) {
	return s.transition(ctx, id, StatusClosed, monthly.RegistryClosed)
}

// ReopenClosing marks the closing reopened and reopens the month's registries.
// Reopening an already reopened month is a no-op.
func (s *Service) ReopenClosing(ctx context.Context, id int64) (MonthClosing, error) {
	return s.transition(ctx, id, StatusReopened, monthly.RegistryOpen)
}

func (s *Service) transition(ctx context.Context, id int64, status, registryStatus string) (MonthClosing, error) {
	current, err := s.GetClosing(ctx, id)
	if err != nil {
		return MonthClosing{}, err
	}
	if current.Status == status {
		return current, nil
	}
	release, err := s.lock(ctx, current.ReferenceMonth)
	if err != nil {
		return MonthClosing{}, err
	}
	defer release()

	changed := false
	var affected int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetClosingForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "closing %d", id)
		}
		if c.Status == status {
			return nil
		}
		changed = true
		if err := tx.SetClosingStatus(ctx, id, status); err != nil {
			return err
		}
		affected, err = tx.SetMonthRegistriesStatus(ctx, c.ReferenceMonth, registryStatus)
		return err
	})
	if err != nil {
		return MonthClosing{}, err
	}
	if changed {
		s.bump(ctx)
		s.record(ctx, "closing."+status, "month_closing", id, map[string]any{"registries": affected})
	}
	return s.GetClosing(ctx, id)
}

func (s *Service) lock(ctx context.Context, month shared.Month) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Obtain(ctx, shared.ClosingLockKey(month.Time))
	if errors.Is(err, cache.ErrLockNotObtained) {
		return nil, shared.Lockedf("closing of %s is in progress", month)
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
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

func decimalOr(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}
