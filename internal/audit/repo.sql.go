package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// PGRepository reads logs from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func rangeFilter(f *shared.Filter, column string, filters TimelineFilters) {
	if !filters.From.IsZero() {
		f.Add(column+" >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		f.Add(column+" < ?", filters.To.AddDate(0, 0, 1))
	}
}

// AuditTimeline lists audit_logs entries, newest first.
func (r *PGRepository) AuditTimeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	var f shared.Filter
	rangeFilter(&f, "a.occurred_at", filters)
	if filters.ActorID != nil {
		f.Add("a.actor_id = ?", *filters.ActorID)
	}
	if filters.Entity != "" {
		f.Add("a.entity = ?", filters.Entity)
	}
	if filters.Action != "" {
		f.Add("a.action = ?", filters.Action)
	}
	query := `SELECT a.occurred_at, a.actor_id, COALESCE(u.name, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id` + f.Where() + `
ORDER BY a.occurred_at DESC, a.id DESC` + f.Paginate(limit, offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.ActorName, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 && string(meta) != "null" {
			row.Meta = meta
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// AccessLog lists access_logs entries, newest first.
func (r *PGRepository) AccessLog(ctx context.Context, filters TimelineFilters, limit, offset int) ([]AccessRow, error) {
	var f shared.Filter
	rangeFilter(&f, "l.occurred_at", filters)
	if filters.ActorID != nil {
		f.Add("l.user_id = ?", *filters.ActorID)
	}
	if filters.Action != "" {
		f.Add("l.action = ?", filters.Action)
	}
	query := `SELECT l.occurred_at, l.user_id, COALESCE(u.name, ''), l.ip, l.action, l.details
FROM access_logs l LEFT JOIN users u ON u.id = l.user_id` + f.Where() + `
ORDER BY l.occurred_at DESC, l.id DESC` + f.Paginate(limit, offset)
	rows, err := r.pool.Query(ctx, query, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccessRow
	for rows.Next() {
		var row AccessRow
		if err := rows.Scan(&row.At, &row.UserID, &row.UserName, &row.IP, &row.Action, &row.Details); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
