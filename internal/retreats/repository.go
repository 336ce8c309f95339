package retreats

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// ErrNotFound means the retreat does not exist.
var ErrNotFound = errors.New("retreat not found")

// Repository handles retreat persistence for the admin read surfaces.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a retreats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, business_id, name, COALESCE(description,''), price_cents, currency, publish_status, created_at, updated_at`

// GetByID returns a retreat by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	const q = `SELECT ` + columns + ` FROM retreats WHERE id = $1`
	var ret models.Retreat
	err := r.pool.QueryRow(ctx, q, id).Scan(&ret.ID, &ret.BusinessID, &ret.Name, &ret.Description,
		&ret.PriceCents, &ret.Currency, &ret.PublishStatus, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// GetDetail returns a retreat with its future dates.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.RetreatDetail, error) {
	ret, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT id, retreat_id, starts_on, ends_on, slots, is_limitless, created_at
		FROM retreat_future_dates WHERE retreat_id = $1 ORDER BY starts_on ASC`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := models.RetreatDetail{Retreat: *ret}
	for rows.Next() {
		var fd models.RetreatFutureDate
		if err := rows.Scan(&fd.ID, &fd.RetreatID, &fd.StartsOn, &fd.EndsOn, &fd.Slots, &fd.IsLimitless, &fd.CreatedAt); err != nil {
			return nil, err
		}
		detail.FutureDates = append(detail.FutureDates, fd)
	}
	return &detail, rows.Err()
}

// List returns retreats newest-first with the total count, optionally
// filtered by business.
func (r *Repository) List(ctx context.Context, businessID *uuid.UUID, offset, limit int) ([]models.Retreat, int, error) {
	cond := ""
	var countArgs, args []interface{}
	if businessID != nil {
		cond = ` WHERE business_id = $1`
		countArgs = append(countArgs, *businessID)
		args = append(args, *businessID, limit, offset)
	} else {
		args = append(args, limit, offset)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM retreats`+cond, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + columns + ` FROM retreats` + cond + ` ORDER BY created_at DESC`
	if businessID != nil {
		q += ` LIMIT $2 OFFSET $3`
	} else {
		q += ` LIMIT $1 OFFSET $2`
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Retreat
	for rows.Next() {
		var ret models.Retreat
		if err := rows.Scan(&ret.ID, &ret.BusinessID, &ret.Name, &ret.Description,
			&ret.PriceCents, &ret.Currency, &ret.PublishStatus, &ret.CreatedAt, &ret.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, ret)
	}
	return list, total, rows.Err()
}
