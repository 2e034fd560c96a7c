package monthly

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

// Repository persists registries, deliveries and schedules in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lookup checks references to other ledgers.
type Lookup interface {
	InputExists(ctx context.Context, id int64) (bool, error)
	InvoiceExists(ctx context.Context, id int64) (bool, error)
	ContractExists(ctx context.Context, id int64) (bool, error)
}

// TxRepository exposes the operations the posting protocol runs inside one unit of work.
type TxRepository interface {
	Lookup
	InputStockForUpdate(ctx context.Context, inputID int64) (decimal.Decimal, error)
	SetInputStock(ctx context.Context, inputID int64, stock decimal.Decimal) error

	FindRegistry(ctx context.Context, inputID int64, month shared.Month) (int64, error)
	GetRegistryForUpdate(ctx context.Context, id int64) (Registry, error)
	InsertRegistry(ctx context.Context, reg Registry) (int64, error)
	UpdateRegistry(ctx context.Context, reg Registry) error
	SaveRegistryTotals(ctx context.Context, reg Registry) error
	SetRegistryStatus(ctx context.Context, id int64, status string) error
	DeleteRegistry(ctx context.Context, id int64) error

	GetDeliveryForUpdate(ctx context.Context, id int64) (Delivery, error)
	InsertDelivery(ctx context.Context, d Delivery) (int64, error)
	UpdateDelivery(ctx context.Context, d Delivery) error
	DeleteDelivery(ctx context.Context, id int64) error
	DeleteRegistryDeliveries(ctx context.Context, registryID int64) error
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
		return errors.New("monthly repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{lookup: lookup{q: tx}, tx: tx})
	})
}

func (l lookup) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	err := l.q.QueryRow(ctx, query, id).Scan(&ok)
	return ok, err
}

func (l lookup) InputExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, `SELECT EXISTS (SELECT 1 FROM inputs WHERE id = $1)`, id)
}

func (l lookup) InvoiceExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id)
}

func (l lookup) ContractExists(ctx context.Context, id int64) (bool, error) {
	return l.exists(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, id)
}

// InputExists reports whether the input is registered.
func (r *Repository) InputExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.InputExists(ctx, id)
}

// InvoiceExists reports whether the invoice is registered.
func (r *Repository) InvoiceExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.InvoiceExists(ctx, id)
}

// ContractExists reports whether the contract is registered.
func (r *Repository) ContractExists(ctx context.Context, id int64) (bool, error) {
	return lookup{q: r.pool}.ContractExists(ctx, id)
}

// Registries

const registryColumns = `id, input_id, reference_month, opening_stock, delivered_quantity, contracted_quantity, paid_quantity, closing_stock, status, notes, created_at, updated_at`

func scanRegistry(row pgx.Row) (Registry, error) {
	var reg Registry
	err := row.Scan(&reg.ID, &reg.InputID, &reg.ReferenceMonth.Time, &reg.OpeningStock, &reg.DeliveredQuantity,
		&reg.ContractedQuantity, &reg.PaidQuantity, &reg.ClosingStock, &reg.Status, &reg.Notes, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Registry{}, ErrNotFound
	}
	return reg, err
}

// GetRegistry loads one registry without its deliveries.
func (r *Repository) GetRegistry(ctx context.Context, id int64) (Registry, error) {
	return scanRegistry(r.pool.QueryRow(ctx, `SELECT `+registryColumns+` FROM monthly_registries WHERE id = $1`, id))
}

// ListRegistries returns registries, newest month first.
func (r *Repository) ListRegistries(ctx context.Context, filters RegistryFilters) ([]Registry, error) {
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
	query := `SELECT ` + registryColumns + ` FROM monthly_registries` + f.Where() + ` ORDER BY reference_month DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Registry
	for rows.Next() {
		reg, err := scanRegistry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// StockPoints returns the registries of an input for a year in month order.
func (r *Repository) StockPoints(ctx context.Context, inputID int64, year int) ([]StockPoint, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.pool.Query(ctx, `SELECT reference_month, opening_stock, delivered_quantity, closing_stock, status
FROM monthly_registries
WHERE input_id = $1 AND reference_month >= $2 AND reference_month < $3
ORDER BY reference_month ASC`, inputID, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockPoint
	for rows.Next() {
		var p StockPoint
		if err := rows.Scan(&p.ReferenceMonth.Time, &p.OpeningStock, &p.DeliveredQuantity, &p.ClosingStock, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) InputStockForUpdate(ctx context.Context, inputID int64) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT current_stock FROM inputs WHERE id = $1 FOR UPDATE`, inputID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	return stock, err
}

func (r *txRepository) SetInputStock(ctx context.Context, inputID int64, stock decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE inputs SET current_stock = $1, updated_at = NOW() WHERE id = $2`, stock, inputID)
	return err
}

func (r *txRepository) FindRegistry(ctx context.Context, inputID int64, month shared.Month) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM monthly_registries WHERE input_id = $1 AND reference_month = $2`, inputID, month.Time).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *txRepository) GetRegistryForUpdate(ctx context.Context, id int64) (Registry, error) {
	return scanRegistry(r.tx.QueryRow(ctx, `SELECT `+registryColumns+` FROM monthly_registries WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) InsertRegistry(ctx context.Context, reg Registry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO monthly_registries (input_id, reference_month, opening_stock, delivered_quantity, contracted_quantity, paid_quantity, closing_stock, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		reg.InputID, reg.ReferenceMonth.Time, reg.OpeningStock, reg.DeliveredQuantity, reg.ContractedQuantity, reg.PaidQuantity, reg.ClosingStock, reg.Status, reg.Notes).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, duplicateRegistry(reg.InputID, reg.ReferenceMonth)
	}
	return id, err
}

func (r *txRepository) UpdateRegistry(ctx context.Context, reg Registry) error {
	_, err := r.tx.Exec(ctx, `UPDATE monthly_registries SET input_id=$1, reference_month=$2, opening_stock=$3, delivered_quantity=$4, contracted_quantity=$5, paid_quantity=$6, closing_stock=$7, notes=$8, updated_at=NOW()
WHERE id=$9`, reg.InputID, reg.ReferenceMonth.Time, reg.OpeningStock, reg.DeliveredQuantity, reg.ContractedQuantity, reg.PaidQuantity, reg.ClosingStock, reg.Notes, reg.ID)
	if db.IsUniqueViolation(err) {
		return duplicateRegistry(reg.InputID, reg.ReferenceMonth)
	}
	return err
}

func (r *txRepository) SaveRegistryTotals(ctx context.Context, reg Registry) error {
	_, err := r.tx.Exec(ctx, `UPDATE monthly_registries SET delivered_quantity=$1, paid_quantity=$2, closing_stock=$3, updated_at=NOW() WHERE id=$4`,
		reg.DeliveredQuantity, reg.PaidQuantity, reg.ClosingStock, reg.ID)
	return err
}

func (r *txRepository) SetRegistryStatus(ctx context.Context, id int64, status string) error {
	_, err := r.tx.Exec(ctx, `UPDATE monthly_registries SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *txRepository) DeleteRegistry(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM monthly_registries WHERE id = $1`, id)
	return err
}

// Deliveries

const deliveryColumns = `id, registry_id, invoice_id, contract_id, delivery_date, quantity, total_value, payment_status, notes, created_at, updated_at`

func scanDelivery(row pgx.Row) (Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.RegistryID, &d.InvoiceID, &d.ContractID, &d.DeliveryDate.Time, &d.Quantity, &d.TotalValue, &d.PaymentStatus, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Delivery{}, ErrNotFound
	}
	return d, err
}

// GetDelivery loads one delivery.
func (r *Repository) GetDelivery(ctx context.Context, id int64) (Delivery, error) {
	return scanDelivery(r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
}

// ListDeliveries returns the deliveries of a registry in date order.
func (r *Repository) ListDeliveries(ctx context.Context, registryID int64) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE registry_id = $1 ORDER BY delivery_date ASC, id ASC`, registryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Delivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *txRepository) GetDeliveryForUpdate(ctx context.Context, id int64) (Delivery, error) {
	return scanDelivery(r.tx.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) InsertDelivery(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO deliveries (registry_id, invoice_id, contract_id, delivery_date, quantity, total_value, payment_status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		d.RegistryID, d.InvoiceID, d.ContractID, d.DeliveryDate.Time, d.Quantity, d.TotalValue, d.PaymentStatus, d.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateDelivery(ctx context.Context, d Delivery) error {
	_, err := r.tx.Exec(ctx, `UPDATE deliveries SET invoice_id=$1, contract_id=$2, delivery_date=$3, quantity=$4, total_value=$5, payment_status=$6, notes=$7, updated_at=NOW()
WHERE id=$8`, d.InvoiceID, d.ContractID, d.DeliveryDate.Time, d.Quantity, d.TotalValue, d.PaymentStatus, d.Notes, d.ID)
	return err
}

func (r *txRepository) DeleteDelivery(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM deliveries WHERE id = $1`, id)
	return err
}

func (r *txRepository) DeleteRegistryDeliveries(ctx context.Context, registryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM deliveries WHERE registry_id = $1`, registryID)
	return err
}

// Future schedules

const scheduleColumns = `id, reference_month, input_id, contract_id, planned_quantity, planned_unit_value, status, notes, created_at, updated_at`

func scanSchedule(row pgx.Row) (FutureSchedule, error) {
	var s FutureSchedule
	var unit decimal.NullDecimal
	err := row.Scan(&s.ID, &s.ReferenceMonth.Time, &s.InputID, &s.ContractID, &s.PlannedQuantity, &unit, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FutureSchedule{}, ErrNotFound
	}
	if err != nil {
		return FutureSchedule{}, err
	}
	if unit.Valid {
		v := unit.Decimal
		s.PlannedUnitValue = &v
	}
	return s, nil
}

// GetSchedule loads one future schedule.
func (r *Repository) GetSchedule(ctx context.Context, id int64) (FutureSchedule, error) {
	return scanSchedule(r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM future_schedules WHERE id = $1`, id))
}

// ListSchedules returns future schedules, oldest month first.
func (r *Repository) ListSchedules(ctx context.Context, filters ScheduleFilters) ([]FutureSchedule, error) {
	var f shared.Filter
	if filters.InputID != nil {
		f.Add("input_id = ?", *filters.InputID)
	}
	if filters.ContractID != nil {
		f.Add("contract_id = ?", *filters.ContractID)
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	if filters.Month != nil {
		f.Add("reference_month = ?", filters.Month.Time)
	}
	query := `SELECT ` + scheduleColumns + ` FROM future_schedules` + f.Where() + ` ORDER BY reference_month ASC, id ASC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FutureSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSchedule stores a future schedule.
func (r *Repository) InsertSchedule(ctx context.Context, s FutureSchedule) (FutureSchedule, error) {
	return scanSchedule(r.pool.QueryRow(ctx, `INSERT INTO future_schedules (reference_month, input_id, contract_id, planned_quantity, planned_unit_value, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+scheduleColumns,
		s.ReferenceMonth.Time, s.InputID, s.ContractID, s.PlannedQuantity, s.PlannedUnitValue, s.Status, s.Notes))
}

// UpdateSchedule overwrites a future schedule.
func (r *Repository) UpdateSchedule(ctx context.Context, s FutureSchedule) (FutureSchedule, error) {
	return scanSchedule(r.pool.QueryRow(ctx, `UPDATE future_schedules SET reference_month=$1, input_id=$2, contract_id=$3, planned_quantity=$4, planned_unit_value=$5, status=$6, notes=$7, updated_at=NOW()
WHERE id=$8 RETURNING `+scheduleColumns,
		s.ReferenceMonth.Time, s.InputID, s.ContractID, s.PlannedQuantity, s.PlannedUnitValue, s.Status, s.Notes, s.ID))
}

// LatestClosingStocks pairs each input's current stock with the closing stock
// of its most recent registry.
func (r *Repository) LatestClosingStocks(ctx context.Context) ([]StockDrift, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ON (mr.input_id) mr.input_id, mr.reference_month, i.current_stock, mr.closing_stock
FROM monthly_registries mr
JOIN inputs i ON i.id = mr.input_id
WHERE i.status = 'active'
ORDER BY mr.input_id, mr.reference_month DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockDrift
	for rows.Next() {
		var d StockDrift
		if err := rows.Scan(&d.InputID, &d.ReferenceMonth.Time, &d.CurrentStock, &d.ClosingStock); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
