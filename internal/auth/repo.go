package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	LogAccess(ctx context.Context, entry AccessEntry) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_sessions (id, user_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, NOW(), $3, $4, $5)`, id, userID, expiresAt.UTC(), nullText(ip), nullText(ua))
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id)
	return err
}

// LogAccess appends to the access log.
func (r *PGRepository) LogAccess(ctx context.Context, entry AccessEntry) error {
	var user any
	if entry.UserID != 0 {
		user = entry.UserID
	}
	var at any
	if !entry.At.IsZero() {
		at = entry.At
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO access_logs (user_id, occurred_at, ip, action, details)
VALUES ($1, COALESCE($2, NOW()), $3, $4, $5)`, user, at, entry.IP, entry.Action, entry.Details)
	return err
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
