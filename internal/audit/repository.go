package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// Repository persists the audit trail of administrative decisions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one audit event.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEvent) error {
	const q = `INSERT INTO audit_events (id, actor_id, action, entity_kind, entity_id, remark)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, e.ActorID, e.Action, e.EntityKind, e.EntityID, e.Remark).
		Scan(&e.ID, &e.CreatedAt)
}

// List returns audit events newest-first with the total count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.AuditEvent, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT id, actor_id, action, entity_kind, entity_id, COALESCE(remark,''), created_at
		FROM audit_events ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityKind, &e.EntityID, &e.Remark, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}
