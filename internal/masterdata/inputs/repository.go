package inputs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Repository persists inputs.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Input, error)
	Get(ctx context.Context, id int64) (Input, error)
	FindByCode(ctx context.Context, code string) (Input, error)
	Create(ctx context.Context, in Input) (Input, error)
	Update(ctx context.Context, in Input) (Input, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// errNoRows is returned by Get and FindByCode when nothing matches.
var errNoRows = errors.New("inputs: no rows")

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectInput = `SELECT id, code, name, description, unit, category, minimum_stock, current_stock, status, notes, created_at, updated_at FROM inputs`

func scanInput(row pgx.Row) (Input, error) {
	var in Input
	err := row.Scan(&in.ID, &in.Code, &in.Name, &in.Description, &in.Unit, &in.Category,
		&in.MinimumStock, &in.CurrentStock, &in.Status, &in.Notes, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Input{}, errNoRows
	}
	return in, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Input, error) {
	var f shared.Filter
	if filters.Name != nil {
		f.Add("search_key LIKE ?", "%"+shared.FoldSearch(*filters.Name)+"%")
	}
	if filters.Code != nil {
		f.Add("code ILIKE ?", "%"+*filters.Code+"%")
	}
	if filters.Status != nil {
		f.Add("status = ?", *filters.Status)
	}
	query := selectInput + f.Where() + " ORDER BY name ASC, id ASC" + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.db.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Input
	for rows.Next() {
		in, err := scanInput(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Input, error) {
	return scanInput(r.db.QueryRow(ctx, selectInput+` WHERE id = $1`, id))
}

func (r *repository) FindByCode(ctx context.Context, code string) (Input, error) {
	return scanInput(r.db.QueryRow(ctx, selectInput+` WHERE code = $1`, code))
}

func (r *repository) Create(ctx context.Context, in Input) (Input, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO inputs (code, name, search_key, description, unit, category, minimum_stock, current_stock, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, code, name, description, unit, category, minimum_stock, current_stock, status, notes, created_at, updated_at`,
		in.Code, in.Name, shared.FoldSearch(in.Name), in.Description, in.Unit, in.Category, in.MinimumStock, in.CurrentStock, in.Status, in.Notes)
	created, err := scanInput(row)
	if db.IsUniqueViolation(err) {
		return Input{}, shared.Duplicatef("input code %q already exists", in.Code)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, in Input) (Input, error) {
	row := r.db.QueryRow(ctx, `UPDATE inputs SET code=$1, name=$2, search_key=$3, description=$4, unit=$5, category=$6, minimum_stock=$7, status=$8, notes=$9, updated_at=NOW()
WHERE id=$10
RETURNING id, code, name, description, unit, category, minimum_stock, current_stock, status, notes, created_at, updated_at`,
		in.Code, in.Name, shared.FoldSearch(in.Name), in.Description, in.Unit, in.Category, in.MinimumStock, in.Status, in.Notes, in.ID)
	updated, err := scanInput(row)
	if db.IsUniqueViolation(err) {
		return Input{}, shared.Duplicatef("input code %q already exists", in.Code)
	}
	return updated, err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE inputs SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}
