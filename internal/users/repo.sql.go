package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, job_title, department, access_level, is_active, last_access_at, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.JobTitle, &u.Department, &u.AccessLevel,
		&u.IsActive, &u.LastAccessAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ListUsers returns users ordered by name.
func (r *Repository) ListUsers(ctx context.Context, filters ListFilters) ([]User, error) {
	var f shared.Filter
	if filters.Name != nil {
		f.Add("name ILIKE ?", "%"+*filters.Name+"%")
	}
	if filters.Email != nil {
		f.Add("email ILIKE ?", "%"+*filters.Email+"%")
	}
	if filters.AccessLevel != nil {
		f.Add("access_level = ?", *filters.AccessLevel)
	}
	if filters.Active != nil {
		f.Add("is_active = ?", *filters.Active)
	}
	query := `SELECT ` + userColumns + ` FROM users` + f.Where() + ` ORDER BY name ASC, id ASC` + f.Paginate(filters.Limit, filters.Offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser loads a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByEmail loads a user by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// InsertUser stores a new user.
func (r *Repository) InsertUser(ctx context.Context, u User) (User, error) {
	created, err := scanUser(r.pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, job_title, department, access_level, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.JobTitle, u.Department, u.AccessLevel, u.IsActive))
	if db.IsUniqueViolation(err) {
		return User{}, shared.Duplicatef("email %s is already registered", u.Email)
	}
	return created, err
}

// UpdateUser rewrites a user.
func (r *Repository) UpdateUser(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(r.pool.QueryRow(ctx, `UPDATE users SET name = $2, email = $3, password_hash = $4, job_title = $5,
    department = $6, access_level = $7, is_active = $8, updated_at = NOW()
WHERE id = $1 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.PasswordHash, u.JobTitle, u.Department, u.AccessLevel, u.IsActive))
	if db.IsUniqueViolation(err) {
		return User{}, shared.Duplicatef("email %s is already registered", u.Email)
	}
	return updated, err
}

// TouchLastAccess stamps the user's last access time.
func (r *Repository) TouchLastAccess(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_access_at = NOW() WHERE id = $1`, id)
	return err
}
