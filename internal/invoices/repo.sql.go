package invoices

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	SupplierExists(ctx context.Context, id int64) (bool, error)
	InputExists(ctx context.Context, id int64) (bool, error)
	FindByNumber(ctx context.Context, number, series string) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (Invoice, error)
	Insert(ctx context.Context, inv Invoice) (int64, error)
	UpdateHeader(ctx context.Context, inv Invoice) error
	SetStatus(ctx context.Context, id int64, status string) error
	ReplaceItems(ctx context.Context, invoiceID int64, items []Item) error
	AdjustStock(ctx context.Context, inputID int64, delta decimal.Decimal) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("invoice repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const invoiceColumns = `id, number, series, issue_date, entry_date, supplier_id, total_value, status, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.Series, &inv.IssueDate.Time, &inv.EntryDate.Time, &inv.SupplierID,
		&inv.TotalValue, &inv.Status, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	return inv, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q querier, invoiceID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, input_id, quantity, unit_value, total_value, notes
FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.InputID, &it.Quantity, &it.UnitValue, &it.TotalValue, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get loads an invoice with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = loadItems(ctx, r.pool, id)
	return inv, err
}

// List returns invoice headers, newest issue date first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Invoice, error) {
	var f shared.Filter
	if filters.Number != nil {
		f.Add("number ILIKE ?", "%"+*filters.Number+"%")
	}
	if filters.SupplierID != nil {
		f.Add("supplier_id = ?", *filters.SupplierID)
	}
	if filters.From != nil {
		f.Add("issue_date >= ?", filters.From.Time)
	}
	if filters.To != nil {
		f.Add("issue_date <= ?", filters.To.Time)
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + f.Where() + ` ORDER BY issue_date DESC, id DESC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SupplierTotals aggregates active invoices per supplier between from and to inclusive.
func (r *Repository) SupplierTotals(ctx context.Context, from, to shared.Date) ([]SupplierTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.name, COUNT(i.id), COALESCE(SUM(i.total_value), 0)
FROM invoices i
JOIN suppliers s ON s.id = i.supplier_id
WHERE i.status = 'active' AND i.issue_date BETWEEN $1 AND $2
GROUP BY s.id, s.name
ORDER BY SUM(i.total_value) DESC, s.name`, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SupplierTotal
	for rows.Next() {
		var st SupplierTotal
		if err := rows.Scan(&st.SupplierID, &st.SupplierName, &st.InvoiceCount, &st.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *txRepository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) InputExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inputs WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) FindByNumber(ctx context.Context, number, series string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM invoices WHERE number = $1 AND series = $2`, number, series).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = loadItems(ctx, r.tx, id)
	return inv, err
}

func (r *txRepository) Insert(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (number, series, issue_date, entry_date, supplier_id, total_value, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		inv.Number, inv.Series, inv.IssueDate.Time, inv.EntryDate.Time, inv.SupplierID, inv.TotalValue, inv.Status, inv.Notes).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, shared.Duplicatef("invoice %s/%s already registered", inv.Number, inv.Series)
	}
	return id, err
}

func (r *txRepository) UpdateHeader(ctx context.Context, inv Invoice) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET number=$1, series=$2, issue_date=$3, entry_date=$4, supplier_id=$5, total_value=$6, notes=$7, updated_at=NOW()
WHERE id=$8`, inv.Number, inv.Series, inv.IssueDate.Time, inv.EntryDate.Time, inv.SupplierID, inv.TotalValue, inv.Notes, inv.ID)
	if db.IsUniqueViolation(err) {
		return shared.Duplicatef("invoice %s/%s already registered", inv.Number, inv.Series)
	}
	return err
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *txRepository) ReplaceItems(ctx context.Context, invoiceID int64, items []Item) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_items (invoice_id, input_id, quantity, unit_value, total_value, notes)
VALUES ($1,$2,$3,$4,$5,$6)`, invoiceID, it.InputID, it.Quantity, it.UnitValue, it.TotalValue, it.Notes); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) AdjustStock(ctx context.Context, inputID int64, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inputs SET current_stock = current_stock + $1, updated_at = NOW() WHERE id = $2`, delta, inputID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.Validationf("input %d does not exist", inputID)
	}
	return nil
}
