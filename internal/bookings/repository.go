package bookings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// Repository handles booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a booking.
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (id, retreat_id, user_id, amount_cents, currency, discount_code_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, b.RetreatID, b.UserID, b.AmountCents, b.Currency, b.DiscountCodeID, b.Status).
		Scan(&b.ID, &b.CreatedAt)
}

// List returns bookings newest-first with the total count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Booking, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT id, retreat_id, user_id, amount_cents, currency, discount_code_id, status, created_at
		FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.RetreatID, &b.UserID, &b.AmountCents, &b.Currency, &b.DiscountCodeID, &b.Status, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}
