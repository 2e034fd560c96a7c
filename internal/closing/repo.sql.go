package closing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Repository persists closings, average costs and analyses in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations run inside one closing unit of work.
type TxRepository interface {
	InputExists(ctx context.Context, id int64) (bool, error)
	FindClosingByMonth(ctx context.Context, month shared.Month) (int64, error)
	GetClosingForUpdate(ctx context.Context, id int64) (MonthClosing, error)
	InsertClosing(ctx context.Context, c MonthClosing) (int64, error)
	InsertDetails(ctx context.Context, closingID int64, details []Detail) error
	SetClosingStatus(ctx context.Context, id int64, status string) error
	SetMonthRegistriesStatus(ctx context.Context, month shared.Month, status string) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("closing repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Closings

const closingColumns = `id, reference_month, closing_date, total_purchase_value, total_quantity, overall_average_cost, status, notes, created_at, updated_at`

func scanClosing(row pgx.Row) (MonthClosing, error) {
	var c MonthClosing
	err := row.Scan(&c.ID, &c.ReferenceMonth.Time, &c.ClosingDate.Time, &c.TotalPurchaseValue, &c.TotalQuantity,
		&c.OverallAverageCost, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MonthClosing{}, ErrNotFound
	}
	return c, err
}

// GetClosing loads a closing with its details.
func (r *Repository) GetClosing(ctx context.Context, id int64) (MonthClosing, error) {
	c, err := scanClosing(r.pool.QueryRow(ctx, `SELECT `+closingColumns+` FROM month_closings WHERE id = $1`, id))
	if err != nil {
		return MonthClosing{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, closing_id, input_id, quantity, total_value, average_cost, notes
FROM month_closing_details WHERE closing_id = $1 ORDER BY id`, id)
	if err != nil {
		return MonthClosing{}, err
	}
	defer rows.Close()
	c.Details = []Detail{}
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.ClosingID, &d.InputID, &d.Quantity, &d.TotalValue, &d.AverageCost, &d.Notes); err != nil {
			return MonthClosing{}, err
		}
		c.Details = append(c.Details, d)
	}
	return c, rows.Err()
}

// ListClosings returns closings, newest month first.
func (r *Repository) ListClosings(ctx context.Context, filters ClosingFilters) ([]MonthClosing, error) {
	var f shared.Filter
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	if filters.Month != nil {
		f.Add("reference_month = ?", filters.Month.Time)
	}
	if filters.Year != nil {
		f.Add("EXTRACT(YEAR FROM reference_month) = ?", *filters.Year)
	}
	query := `SELECT ` + closingColumns + ` FROM month_closings` + f.Where() + ` ORDER BY reference_month DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthClosing
	for rows.Next() {
		c, err := scanClosing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *txRepository) InputExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inputs WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) FindClosingByMonth(ctx context.Context, month shared.Month) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM month_closings WHERE reference_month = $1`, month.Time).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *txRepository) GetClosingForUpdate(ctx context.Context, id int64) (MonthClosing, error) {
	return scanClosing(r.tx.QueryRow(ctx, `SELECT `+closingColumns+` FROM month_closings WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) InsertClosing(ctx context.Context, c MonthClosing) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO month_closings (reference_month, closing_date, total_purchase_value, total_quantity, overall_average_cost, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		c.ReferenceMonth.Time, c.ClosingDate.Time, c.TotalPurchaseValue, c.TotalQuantity, c.OverallAverageCost, c.Status, c.Notes).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, shared.Duplicatef("closing for month %s already exists", c.ReferenceMonth)
	}
	return id, err
}

func (r *txRepository) InsertDetails(ctx context.Context, closingID int64, details []Detail) error {
	for _, d := range details {
		if _, err := r.tx.Exec(ctx, `INSERT INTO month_closing_details (closing_id, input_id, quantity, total_value, average_cost, notes)
VALUES ($1,$2,$3,$4,$5,$6)`, closingID, d.InputID, d.Quantity, d.TotalValue, d.AverageCost, d.Notes); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) SetClosingStatus(ctx context.Context, id int64, status string) error {
	_, err := r.tx.Exec(ctx, `UPDATE month_closings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

// setMonthRegistriesStatusSQL compares the DATE column directly. reference_month
// is stored as the 1st of the month, and a date_trunc comparison would go
// through timestamptz and depend on the session TimeZone.
const setMonthRegistriesStatusSQL = `UPDATE monthly_registries SET status = $2, updated_at = NOW()
WHERE reference_month = $1::date`

func (r *txRepository) SetMonthRegistriesStatus(ctx context.Context, month shared.Month, status string) (int64, error) {
	tag, err := r.tx.Exec(ctx, setMonthRegistriesStatusSQL, month.Time, status)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Average costs

const averageCostColumns = `id, input_id, reference_month, total_quantity, total_cost, unit_average_cost, notes, created_at, updated_at`

func scanAverageCost(row pgx.Row) (AverageCost, error) {
	var ac AverageCost
	err := row.Scan(&ac.ID, &ac.InputID, &ac.ReferenceMonth.Time, &ac.TotalQuantity, &ac.TotalCost,
		&ac.UnitAverageCost, &ac.Notes, &ac.CreatedAt, &ac.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AverageCost{}, ErrNotFound
	}
	return ac, err
}

func collectAverageCosts(rows pgx.Rows) ([]AverageCost, error) {
	defer rows.Close()
	var out []AverageCost
	for rows.Next() {
		ac, err := scanAverageCost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ac)
	}
	return out, rows.Err()
}

// GetAverageCost loads one average cost row.
func (r *Repository) GetAverageCost(ctx context.Context, id int64) (AverageCost, error) {
	return scanAverageCost(r.pool.QueryRow(ctx, `SELECT `+averageCostColumns+` FROM average_costs WHERE id = $1`, id))
}

// ListAverageCosts returns average costs, newest month first.
func (r *Repository) ListAverageCosts(ctx context.Context, filters AverageCostFilters) ([]AverageCost, error) {
	var f shared.Filter
	if filters.InputID != nil {
		f.Add("input_id = ?", *filters.InputID)
	}
	if filters.Month != nil {
		f.Add("reference_month = ?", filters.Month.Time)
	}
	query := `SELECT ` + averageCostColumns + ` FROM average_costs` + f.Where() + ` ORDER BY reference_month DESC, input_id` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	return collectAverageCosts(rows)
}

// AverageCostsForYear returns the average costs of an input for a year in month order.
func (r *Repository) AverageCostsForYear(ctx context.Context, inputID int64, year int) ([]AverageCost, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.pool.Query(ctx, `SELECT `+averageCostColumns+` FROM average_costs
WHERE input_id = $1 AND reference_month >= $2 AND reference_month < $3
ORDER BY reference_month ASC`, inputID, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	return collectAverageCosts(rows)
}

// UpsertAverageCost stores the average cost keyed by (input, month).
func (r *Repository) UpsertAverageCost(ctx context.Context, ac AverageCost) (AverageCost, error) {
	return scanAverageCost(r.pool.QueryRow(ctx, `INSERT INTO average_costs (input_id, reference_month, total_quantity, total_cost, unit_average_cost, notes)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (input_id, reference_month) DO UPDATE SET
    total_quantity = EXCLUDED.total_quantity,
    total_cost = EXCLUDED.total_cost,
    unit_average_cost = EXCLUDED.unit_average_cost,
    notes = EXCLUDED.notes,
    updated_at = NOW()
RETURNING `+averageCostColumns, ac.InputID, ac.ReferenceMonth.Time, ac.TotalQuantity, ac.TotalCost, ac.UnitAverageCost, ac.Notes))
}

// MonthTotals sums the non-cancelled deliveries of a month per input.
func (r *Repository) MonthTotals(ctx context.Context, month shared.Month, inputID *int64) ([]MonthTotals, error) {
	rows, err := r.pool.Query(ctx, `SELECT mr.input_id, COALESCE(SUM(d.quantity), 0), COALESCE(SUM(d.total_value), 0)
FROM monthly_registries mr
LEFT JOIN deliveries d ON d.registry_id = mr.id AND d.payment_status <> 'cancelled'
WHERE mr.reference_month = $1 AND ($2::BIGINT IS NULL OR mr.input_id = $2)
GROUP BY mr.input_id
ORDER BY mr.input_id`, month.Time, inputID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthTotals
	for rows.Next() {
		var t MonthTotals
		if err := rows.Scan(&t.InputID, &t.Quantity, &t.Value); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Reports

// InputRef loads the identifying fields of an input.
func (r *Repository) InputRef(ctx context.Context, id int64) (InputRef, error) {
	var ref InputRef
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, unit_of_measure FROM inputs WHERE id = $1`, id).
		Scan(&ref.ID, &ref.Code, &ref.Name, &ref.UnitOfMeasure)
	if errors.Is(err, pgx.ErrNoRows) {
		return InputRef{}, ErrNotFound
	}
	return ref, err
}

// PriceEntries returns the deliveries of an input between from and to, oldest first.
func (r *Repository) PriceEntries(ctx context.Context, inputID int64, from, to shared.Date) ([]PriceEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT d.delivery_date, d.quantity, d.total_value
FROM deliveries d
JOIN monthly_registries mr ON mr.id = d.registry_id
WHERE mr.input_id = $1 AND d.delivery_date BETWEEN $2 AND $3
ORDER BY d.delivery_date ASC, d.id ASC`, inputID, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PriceEntry
	for rows.Next() {
		var e PriceEntry
		if err := rows.Scan(&e.DeliveryDate.Time, &e.Quantity, &e.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Analyses

const analysisColumns = `id, title, kind, start_date, end_date, parameters, results, notes, created_at, updated_at`

func scanAnalysis(row pgx.Row) (Analysis, error) {
	var a Analysis
	var params, results []byte
	err := row.Scan(&a.ID, &a.Title, &a.Kind, &a.StartDate.Time, &a.EndDate.Time, &params, &results, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	a.Parameters, a.Results = params, results
	return a, err
}

// GetAnalysis loads one analysis.
func (r *Repository) GetAnalysis(ctx context.Context, id int64) (Analysis, error) {
	return scanAnalysis(r.pool.QueryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id))
}

// ListAnalyses returns analyses, newest start date first.
func (r *Repository) ListAnalyses(ctx context.Context, filters AnalysisFilters) ([]Analysis, error) {
	var f shared.Filter
	if filters.Kind != nil {
		f.Add("kind = ?", *filters.Kind)
	}
	if filters.From != nil {
		f.Add("start_date >= ?", filters.From.Time)
	}
	if filters.To != nil {
		f.Add("end_date <= ?", filters.To.Time)
	}
	query := `SELECT ` + analysisColumns + ` FROM analyses` + f.Where() + ` ORDER BY start_date DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAnalysis stores a new analysis.
func (r *Repository) InsertAnalysis(ctx context.Context, a Analysis) (Analysis, error) {
	return scanAnalysis(r.pool.QueryRow(ctx, `INSERT INTO analyses (title, kind, start_date, end_date, parameters, results, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+analysisColumns,
		a.Title, a.Kind, a.StartDate.Time, a.EndDate.Time, jsonOrNil(a.Parameters), jsonOrNil(a.Results), a.Notes))
}

// UpdateAnalysis rewrites an analysis.
func (r *Repository) UpdateAnalysis(ctx context.Context, a Analysis) (Analysis, error) {
	return scanAnalysis(r.pool.QueryRow(ctx, `UPDATE analyses SET title = $2, kind = $3, start_date = $4, end_date = $5,
    parameters = $6, results = $7, notes = $8, updated_at = NOW()
WHERE id = $1 RETURNING `+analysisColumns,
		a.ID, a.Title, a.Kind, a.StartDate.Time, a.EndDate.Time, jsonOrNil(a.Parameters), jsonOrNil(a.Results), a.Notes))
}

// DeleteAnalysis removes an analysis.
func (r *Repository) DeleteAnalysis(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func jsonOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
