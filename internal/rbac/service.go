package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store loads access data for a user.
type Store interface {
	LoadPrincipal(ctx context.Context, userID int64) (Principal, error)
}

// Repository reads access levels from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadPrincipal fetches the access level and active flag of a user.
func (r *Repository) LoadPrincipal(ctx context.Context, userID int64) (Principal, error) {
	p := Principal{UserID: userID}
	err := r.pool.QueryRow(ctx, `SELECT access_level, is_active FROM users WHERE id = $1`, userID).Scan(&p.AccessLevel, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Principal{}, ErrNotFound
	}
	return p, err
}

// Service resolves the effective access of users.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EffectivePrincipal returns the current access of a user. Missing users
// resolve to an inactive principal.
func (s *Service) EffectivePrincipal(ctx context.Context, userID int64) (Principal, error) {
	p, err := s.store.LoadPrincipal(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Principal{UserID: userID}, nil
	}
	return p, err
}
