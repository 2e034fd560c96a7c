package procurement

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Lookup
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetContract(ctx context.Context, id int64) (Contract, error)
	ListContracts(ctx context.Context, filters ContractFilters) ([]Contract, error)
	ContractSchedule(ctx context.Context, from, to shared.Date) ([]ScheduleEntry, error)

	GetQuotation(ctx context.Context, id int64) (Quotation, error)
	ListQuotations(ctx context.Context, filters QuotationFilters) ([]Quotation, error)
	InsertQuotation(ctx context.Context, q Quotation) (Quotation, error)
	UpdateQuotation(ctx context.Context, q Quotation) (Quotation, error)
	DeleteQuotation(ctx context.Context, id int64) error
	PricePoints(ctx context.Context, inputID int64, from, to *shared.Date) ([]PricePoint, error)

	GetPlan(ctx context.Context, id int64) (PurchasePlan, error)
	ListPlans(ctx context.Context, filters PlanFilters) ([]PurchasePlan, error)
	InsertPlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error)
	UpdatePlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates contracts, quotations and purchase plans.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// GetContract returns a contract with its items.
func (s *Service) GetContract(ctx context.Context, id int64) (Contract, error) {
	c, err := s.repo.GetContract(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Contract{}, shared.NotFoundf("contract %d", id)
	}
	return c, err
}

// ListContracts returns contract headers.
func (s *Service) ListContracts(ctx context.Context, filters ContractFilters) ([]Contract, error) {
	if filters.Status != nil && !validContractStatus(*filters.Status) {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListContracts(ctx, filters)
}

// CreateContract registers a contract and its items.
func (s *Service) CreateContract(ctx context.Context, input CreateContractInput) (Contract, error) {
	items, total, err := buildContractItems(input.Items)
	if err != nil {
		return Contract{}, err
	}
	c := Contract{
		Number:     strings.TrimSpace(input.Number),
		SupplierID: input.SupplierID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		TotalValue: total,
		Status:     ContractActive,
		Notes:      deref(input.Notes),
		Items:      items,
	}
	if input.TotalValue != nil {
		c.TotalValue = *input.TotalValue
	}
	if input.Status != nil {
		c.Status = *input.Status
	}
	if err := validateContract(c); err != nil {
		return Contract{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkContractRefs(ctx, tx, c); err != nil {
			return err
		}
		if err := ensureContractNumberFree(ctx, tx, c.Number, 0); err != nil {
			return err
		}
		id, err := tx.InsertContract(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		return tx.ReplaceContractItems(ctx, id, items)
	})
	if err != nil {
		return Contract{}, err
	}
	s.record(ctx, "contract.create", "contract", c.ID, map[string]any{"number": c.Number})
	return s.GetContract(ctx, c.ID)
}

// UpdateContract changes a contract; supplied items replace the current ones.
func (s *Service) UpdateContract(ctx context.Context, id int64, input UpdateContractInput) (Contract, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetContractForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return shared.NotFoundf("contract %d", id)
		}
		if err != nil {
			return err
		}
		if input.Number != nil {
			c.Number = strings.TrimSpace(*input.Number)
		}
		if input.SupplierID != nil {
			c.SupplierID = *input.SupplierID
		}
		if input.StartDate != nil {
			c.StartDate = *input.StartDate
		}
		if input.EndDate != nil {
			c.EndDate = *input.EndDate
		}
		if input.Status != nil {
			c.Status = *input.Status
		}
		if input.Notes != nil {
			c.Notes = *input.Notes
		}
		replace := input.Items != nil
		if replace {
			items, total, err := buildContractItems(*input.Items)
			if err != nil {
				return err
			}
			c.Items = items
			c.TotalValue = total
		}
		if input.TotalValue != nil {
			c.TotalValue = *input.TotalValue
		}
		if err := validateContract(c); err != nil {
			return err
		}
		if err := checkContractRefs(ctx, tx, c); err != nil {
			return err
		}
		if err := ensureContractNumberFree(ctx, tx, c.Number, c.ID); err != nil {
			return err
		}
		if err := tx.UpdateContract(ctx, c); err != nil {
			return err
		}
		if replace {
			return tx.ReplaceContractItems(ctx, c.ID, c.Items)
		}
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	s.record(ctx, "contract.update", "contract", id, nil)
	return s.GetContract(ctx, id)
}

// DeleteContract cancels the contract.
func (s *Service) DeleteContract(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetContractForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return shared.NotFoundf("contract %d", id)
		}
		if err != nil {
			return err
		}
		if c.Status == ContractCancelled {
			return nil
		}
		return tx.SetContractStatus(ctx, id, ContractCancelled)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "contract.cancel", "contract", id, nil)
	return nil
}

// Schedule lists the contracted deliveries expected between from and to.
func (s *Service) Schedule(ctx context.Context, from, to shared.Date) ([]ScheduleEntry, error) {
	if from.IsZero() || to.IsZero() {
		return nil, shared.Validationf("from and to are required")
	}
	if to.Before(from.Time) {
		return nil, shared.Validationf("end date must not precede start date")
	}
	entries, err := s.repo.ContractSchedule(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ScheduleEntry{}
	}
	return entries, nil
}

func validateContract(c Contract) error {
	if c.Number == "" {
		return shared.Validationf("contract number is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return shared.Validationf("start and end dates are required")
	}
	if c.EndDate.Before(c.StartDate.Time) {
		return shared.Validationf("end date must not precede start date")
	}
	if !validContractStatus(c.Status) {
		return shared.Validationf("unknown status %q", c.Status)
	}
	return nil
}

func validContractStatus(status string) bool {
	switch status {
	case ContractActive, ContractClosed, ContractCancelled:
		return true
	}
	return false
}

func buildContractItems(inputs []ContractItemInput) ([]ContractItem, decimal.Decimal, error) {
	items := make([]ContractItem, 0, len(inputs))
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
		items = append(items, ContractItem{
			InputID:              in.InputID,
			Quantity:             in.Quantity,
			UnitValue:            in.UnitValue,
			TotalValue:           lineTotal,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			Notes:                deref(in.Notes),
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func checkContractRefs(ctx context.Context, l Lookup, c Contract) error {
	if err := requireSupplier(ctx, l, c.SupplierID); err != nil {
		return err
	}
	for _, it := range c.Items {
		if err := requireInput(ctx, l, it.InputID); err != nil {
			return err
		}
	}
	return nil
}

func ensureContractNumberFree(ctx context.Context, tx TxRepository, number string, selfID int64) error {
	id, err := tx.FindContractByNumber(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if id != selfID {
		return shared.Duplicatef("contract %s already registered", number)
	}
	return nil
}

func requireSupplier(ctx context.Context, l Lookup, id int64) error {
	ok, err := l.SupplierExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.Validationf("supplier %d does not exist", id)
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

func requireContract(ctx context.Context, l Lookup, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := l.ContractExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.Validationf("contract %d does not exist", *id)
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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
