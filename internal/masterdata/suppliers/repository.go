package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	FindByCNPJ(ctx context.Context, cnpj string) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, supplier Supplier) (Supplier, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// ErrNotFound is returned when no supplier matches.
var ErrNotFound = errors.New("supplier not found")

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const supplierColumns = `id, name, cnpj, address, phone, email, contact, status, notes, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.CNPJ, &s.Address, &s.Phone, &s.Email, &s.Contact, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Supplier, error) {
	var f shared.Filter
	if filters.Name != nil {
		f.Add("name ILIKE ?", "%"+*filters.Name+"%")
	}
	if filters.CNPJ != nil {
		f.Add("cnpj LIKE ?", "%"+shared.DigitsOnly(*filters.CNPJ)+"%")
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	query := `SELECT ` + supplierColumns + ` FROM suppliers` + f.Where() + ` ORDER BY name ASC, id ASC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.db.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(r.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
}

func (r *repository) FindByCNPJ(ctx context.Context, cnpj string) (Supplier, error) {
	return scanSupplier(r.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE cnpj = $1`, cnpj))
}

func (r *repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	created, err := scanSupplier(r.db.QueryRow(ctx, `INSERT INTO suppliers (name, cnpj, address, phone, email, contact, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+supplierColumns,
		s.Name, s.CNPJ, s.Address, s.Phone, s.Email, s.Contact, s.Status, s.Notes))
	if db.IsUniqueViolation(err) {
		return Supplier{}, shared.Duplicatef("cnpj %s already registered", s.CNPJ)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	updated, err := scanSupplier(r.db.QueryRow(ctx, `UPDATE suppliers SET name=$1, cnpj=$2, address=$3, phone=$4, email=$5, contact=$6, status=$7, notes=$8, updated_at=NOW()
WHERE id=$9 RETURNING `+supplierColumns,
		s.Name, s.CNPJ, s.Address, s.Phone, s.Email, s.Contact, s.Status, s.Notes, s.ID))
	if db.IsUniqueViolation(err) {
		return Supplier{}, shared.Duplicatef("cnpj %s already registered", s.CNPJ)
	}
	return updated, err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE suppliers SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
