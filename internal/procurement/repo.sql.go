package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Repository persists procurement data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes contract operations that must run in one transaction.
type TxRepository interface {
	Lookup
	FindContractByNumber(ctx context.Context, number string) (int64, error)
	GetContractForUpdate(ctx context.Context, id int64) (Contract, error)
	InsertContract(ctx context.Context, c Contract) (int64, error)
	UpdateContract(ctx context.Context, c Contract) error
	ReplaceContractItems(ctx context.Context, contractID int64, items []ContractItem) error
	SetContractStatus(ctx context.Context, id int64, status string) error
}

// Lookup checks references to master data.
type Lookup interface {
	SupplierExists(ctx context.Context, id int64) (bool, error)
	InputExists(ctx context.Context, id int64) (bool, error)
	ContractExists(ctx context.Context, id int64) (bool, error)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type lookup struct {
	q queryer
}

type txRepository struct {
	lookup
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("procurement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{lookup: lookup{q: tx}, tx: tx})
	})
}

func exists(ctx context.Context, q queryer, query string, id int64) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, query, id).Scan(&ok)
	return ok, err
}

func (l lookup) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, l.q, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id)
}

func (l lookup) InputExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, l.q, `SELECT EXISTS (SELECT 1 FROM inputs WHERE id = $1)`, id)
}

func (l lookup) ContractExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, l.q, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, id)
}

// SupplierExists reports whether the supplier is registered.
func (r *Repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.SupplierExists(ctx, id)
}

// InputExists reports whether the input is registered.
func (r *Repository) InputExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.InputExists(ctx, id)
}

// ContractExists reports whether the contract is registered.
func (r *Repository) ContractExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.ContractExists(ctx, id)
}

// Contracts

const contractColumns = `id, number, supplier_id, start_date, end_date, total_value, status, notes, created_at, updated_at`

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.Number, &c.SupplierID, &c.StartDate.Time, &c.EndDate.Time, &c.TotalValue, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	return c, err
}

func loadContractItems(ctx context.Context, q queryer, contractID int64) ([]ContractItem, error) {
	rows, err := q.Query(ctx, `SELECT id, contract_id, input_id, quantity, unit_value, total_value, expected_delivery_date, notes
FROM contract_items WHERE contract_id = $1 ORDER BY id`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContractItem{}
	for rows.Next() {
		var it ContractItem
		var expected *time.Time
		if err := rows.Scan(&it.ID, &it.ContractID, &it.InputID, &it.Quantity, &it.UnitValue, &it.TotalValue, &expected, &it.Notes); err != nil {
			return nil, err
		}
		it.ExpectedDeliveryDate = shared.DateFromPtr(expected)
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetContract loads a contract with its items.
func (r *Repository) GetContract(ctx context.Context, id int64) (Contract, error) {
	c, err := scanContract(r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
	if err != nil {
		return Contract{}, err
	}
	c.Items, err = loadContractItems(ctx, r.pool, id)
	return c, err
}

// ListContracts returns contract headers, newest start date first.
func (r *Repository) ListContracts(ctx context.Context, filters ContractFilters) ([]Contract, error) {
	var f shared.Filter
	if filters.Number != nil {
		f.Add("number ILIKE ?", "%"+*filters.Number+"%")
	}
	if filters.SupplierID != nil {
		f.Add("supplier_id = ?", *filters.SupplierID)
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	if filters.From != nil {
		f.Add("end_date >= ?", filters.From.Time)
	}
	if filters.To != nil {
		f.Add("start_date <= ?", filters.To.Time)
	}
	query := `SELECT ` + contractColumns + ` FROM contracts` + f.Where() + ` ORDER BY start_date DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ContractSchedule lists active contract items expected between from and to.
func (r *Repository) ContractSchedule(ctx context.Context, from, to shared.Date) ([]ScheduleEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.number, c.supplier_id, ci.id, ci.input_id, i.name, ci.quantity, ci.expected_delivery_date
FROM contract_items ci
JOIN contracts c ON c.id = ci.contract_id
JOIN inputs i ON i.id = ci.input_id
WHERE c.status = 'active' AND ci.expected_delivery_date BETWEEN $1 AND $2
ORDER BY ci.expected_delivery_date, c.number, ci.id`, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ContractID, &e.ContractNumber, &e.SupplierID, &e.ItemID, &e.InputID, &e.InputName, &e.Quantity, &e.ExpectedDeliveryDate.Time); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *txRepository) FindContractByNumber(ctx context.Context, number string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM contracts WHERE number = $1`, number).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *txRepository) GetContractForUpdate(ctx context.Context, id int64) (Contract, error) {
	c, err := scanContract(r.tx.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Contract{}, err
	}
	c.Items, err = loadContractItems(ctx, r.tx, id)
	return c, err
}

func (r *txRepository) InsertContract(ctx context.Context, c Contract) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO contracts (number, supplier_id, start_date, end_date, total_value, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		c.Number, c.SupplierID, c.StartDate.Time, c.EndDate.Time, c.TotalValue, c.Status, c.Notes).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, shared.Duplicatef("contract %s already registered", c.Number)
	}
	return id, err
}

func (r *txRepository) UpdateContract(ctx context.Context, c Contract) error {
	_, err := r.tx.Exec(ctx, `UPDATE contracts SET number=$1, supplier_id=$2, start_date=$3, end_date=$4, total_value=$5, status=$6, notes=$7, updated_at=NOW()
WHERE id=$8`, c.Number, c.SupplierID, c.StartDate.Time, c.EndDate.Time, c.TotalValue, c.Status, c.Notes, c.ID)
	if db.IsUniqueViolation(err) {
		return shared.Duplicatef("contract %s already registered", c.Number)
	}
	return err
}

func (r *txRepository) ReplaceContractItems(ctx context.Context, contractID int64, items []ContractItem) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM contract_items WHERE contract_id = $1`, contractID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO contract_items (contract_id, input_id, quantity, unit_value, total_value, expected_delivery_date, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, contractID, it.InputID, it.Quantity, it.UnitValue, it.TotalValue, shared.DateOrNil(it.ExpectedDeliveryDate), it.Notes); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) SetContractStatus(ctx context.Context, id int64, status string) error {
	_, err := r.tx.Exec(ctx, `UPDATE contracts SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

// Quotations

const quotationColumns = `id, quoted_on, supplier_id, input_id, contract_id, unit_price, quantity, lead_days, valid_until, notes, created_at, updated_at`

func scanQuotation(row pgx.Row) (Quotation, error) {
	var q Quotation
	var quantity decimal.NullDecimal
	var validUntil *time.Time
	err := row.Scan(&q.ID, &q.QuotedOn.Time, &q.SupplierID, &q.InputID, &q.ContractID, &q.UnitPrice, &quantity, &q.LeadDays, &validUntil, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quotation{}, ErrNotFound
	}
	if err != nil {
		return Quotation{}, err
	}
	q.Quantity = decimalPtr(quantity)
	q.ValidUntil = shared.DateFromPtr(validUntil)
	return q, nil
}

// GetQuotation loads one quotation.
func (r *Repository) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	return scanQuotation(r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
}

// ListQuotations returns quotations, newest first.
func (r *Repository) ListQuotations(ctx context.Context, filters QuotationFilters) ([]Quotation, error) {
	var f shared.Filter
	if filters.InputID != nil {
		f.Add("input_id = ?", *filters.InputID)
	}
	if filters.SupplierID != nil {
		f.Add("supplier_id = ?", *filters.SupplierID)
	}
	if filters.From != nil {
		f.Add("quoted_on >= ?", filters.From.Time)
	}
	if filters.To != nil {
		f.Add("quoted_on <= ?", filters.To.Time)
	}
	query := `SELECT ` + quotationColumns + ` FROM quotations` + f.Where() + ` ORDER BY quoted_on DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// InsertQuotation stores a new quotation.
func (r *Repository) InsertQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	return scanQuotation(r.pool.QueryRow(ctx, `INSERT INTO quotations (quoted_on, supplier_id, input_id, contract_id, unit_price, quantity, lead_days, valid_until, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING `+quotationColumns,
		q.QuotedOn.Time, q.SupplierID, q.InputID, q.ContractID, q.UnitPrice, q.Quantity, q.LeadDays, shared.DateOrNil(q.ValidUntil), q.Notes))
}

// UpdateQuotation overwrites a quotation.
func (r *Repository) UpdateQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	return scanQuotation(r.pool.QueryRow(ctx, `UPDATE quotations SET quoted_on=$1, supplier_id=$2, input_id=$3, contract_id=$4, unit_price=$5, quantity=$6, lead_days=$7, valid_until=$8, notes=$9, updated_at=NOW()
WHERE id=$10 RETURNING `+quotationColumns,
		q.QuotedOn.Time, q.SupplierID, q.InputID, q.ContractID, q.UnitPrice, q.Quantity, q.LeadDays, shared.DateOrNil(q.ValidUntil), q.Notes, q.ID))
}

// DeleteQuotation removes a quotation.
func (r *Repository) DeleteQuotation(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PricePoints returns the quotations of an input in date order.
func (r *Repository) PricePoints(ctx context.Context, inputID int64, from, to *shared.Date) ([]PricePoint, error) {
	var f shared.Filter
	f.Add("q.input_id = ?", inputID)
	if from != nil {
		f.Add("q.quoted_on >= ?", from.Time)
	}
	if to != nil {
		f.Add("q.quoted_on <= ?", to.Time)
	}
	rows, err := r.pool.Query(ctx, `SELECT q.id, q.quoted_on, q.supplier_id, s.name, q.unit_price
FROM quotations q JOIN suppliers s ON s.id = q.supplier_id`+f.Where()+` ORDER BY q.quoted_on ASC, q.id ASC`, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.QuotationID, &p.QuotedOn.Time, &p.SupplierID, &p.SupplierName, &p.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Purchase plans

const planColumns = `id, reference_month, input_id, planned_quantity, planned_unit_value, planned_total_value, status, notes, created_at, updated_at`

func scanPlan(row pgx.Row) (PurchasePlan, error) {
	var p PurchasePlan
	var unit, total decimal.NullDecimal
	err := row.Scan(&p.ID, &p.ReferenceMonth.Time, &p.InputID, &p.PlannedQuantity, &unit, &total, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchasePlan{}, ErrNotFound
	}
	if err != nil {
		return PurchasePlan{}, err
	}
	p.PlannedUnitValue = decimalPtr(unit)
	p.PlannedTotalValue = decimalPtr(total)
	return p, nil
}

// GetPlan loads one purchase plan.
func (r *Repository) GetPlan(ctx context.Context, id int64) (PurchasePlan, error) {
	return scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM purchase_plans WHERE id = $1`, id))
}

// ListPlans returns purchase plans, newest month first.
func (r *Repository) ListPlans(ctx context.Context, filters PlanFilters) ([]PurchasePlan, error) {
	var f shared.Filter
	if filters.InputID != nil {
		f.Add("input_id = ?", *filters.InputID)
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	if filters.Month != nil {
		f.Add("reference_month = ?", filters.Month.Time)
	}
	query := `SELECT ` + planColumns + ` FROM purchase_plans` + f.Where() + ` ORDER BY reference_month DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchasePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPlan stores a purchase plan.
func (r *Repository) InsertPlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error) {
	return scanPlan(r.pool.QueryRow(ctx, `INSERT INTO purchase_plans (reference_month, input_id, planned_quantity, planned_unit_value, planned_total_value, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+planColumns,
		p.ReferenceMonth.Time, p.InputID, p.PlannedQuantity, p.PlannedUnitValue, p.PlannedTotalValue, p.Status, p.Notes))
}

// UpdatePlan overwrites a purchase plan.
func (r *Repository) UpdatePlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error) {
	return scanPlan(r.pool.QueryRow(ctx, `UPDATE purchase_plans SET reference_month=$1, input_id=$2, planned_quantity=$3, planned_unit_value=$4, planned_total_value=$5, status=$6, notes=$7, updated_at=NOW()
WHERE id=$8 RETURNING `+planColumns,
		p.ReferenceMonth.Time, p.InputID, p.PlannedQuantity, p.PlannedUnitValue, p.PlannedTotalValue, p.Status, p.Notes, p.ID))
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}
