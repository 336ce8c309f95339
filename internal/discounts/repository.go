package discounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// Repository is the PostgreSQL Store. Uniqueness rides a unique index on
// lower(code); the usage counter and the delete guard are single
// conditional statements so concurrent calls serialize on the row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a discounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, code, discount_percent, COALESCE(description,''), valid_from, valid_until, max_uses, used_count, is_active, created_at, updated_at`

func scan(row pgx.Row) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := row.Scan(&dc.ID, &dc.Code, &dc.DiscountPercent, &dc.Description, &dc.ValidFrom, &dc.ValidUntil,
		&dc.MaxUses, &dc.UsedCount, &dc.IsActive, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dc, nil
}

// Insert creates a new discount code row.
func (r *Repository) Insert(ctx context.Context, dc *models.DiscountCode) error {
	const q = `INSERT INTO discount_codes (id, code, discount_percent, description, valid_from, valid_until, max_uses, is_active)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5, $6, $7)
		RETURNING id, used_count, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, dc.Code, dc.DiscountPercent, dc.Description, dc.ValidFrom, dc.ValidUntil, dc.MaxUses, dc.IsActive).
		Scan(&dc.ID, &dc.UsedCount, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

// Get returns a discount code by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	const q = `SELECT ` + columns + ` FROM discount_codes WHERE id = $1`
	return scan(r.pool.QueryRow(ctx, q, id))
}

// Update writes the merged code fields. used_count is never written here;
// only IncrementUse moves it. The used_count <= max_uses check constraint
// catches a concurrent redemption that outran the ledger's own guard.
func (r *Repository) Update(ctx context.Context, dc *models.DiscountCode) (*models.DiscountCode, error) {
	const q = `UPDATE discount_codes
		SET code = $2, discount_percent = $3, description = NULLIF($4,''), valid_from = $5, valid_until = $6, max_uses = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	updated, err := scan(r.pool.QueryRow(ctx, q, dc.ID, dc.Code, dc.DiscountPercent, dc.Description, dc.ValidFrom, dc.ValidUntil, dc.MaxUses, dc.IsActive))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return nil, ErrDuplicateCode
			case checkViolation:
				return nil, ErrMaxUsesBelowUsed
			}
		}
		return nil, err
	}
	return updated, nil
}

// SetActive sets the activation flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.DiscountCode, error) {
	const q = `UPDATE discount_codes SET is_active = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, id, active))
}

// Delete removes the code only while no use has been recorded.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM discount_codes WHERE id = $1 AND used_count = 0`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInUse
	}
	return nil
}

// IncrementUse is the atomic compare-and-increment: the condition and the
// bump happen in one statement, so the counter can never pass max_uses.
func (r *Repository) IncrementUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	const q = `UPDATE discount_codes SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND used_count < max_uses
		RETURNING ` + columns
	dc, err := scan(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrExhausted
		}
		return nil, err
	}
	return dc, nil
}

// ReleaseUse lowers the counter by one, stopping at zero.
func (r *Repository) ReleaseUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	const q = `UPDATE discount_codes SET used_count = used_count - 1, updated_at = NOW()
		WHERE id = $1 AND used_count > 0
		RETURNING ` + columns
	dc, err := scan(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Either unknown or already at zero; Get settles which.
			return r.Get(ctx, id)
		}
		return nil, err
	}
	return dc, nil
}

// List returns discount codes newest-first with the total count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.DiscountCode, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discount_codes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + columns + ` FROM discount_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.DiscountCode
	for rows.Next() {
		var dc models.DiscountCode
		if err := rows.Scan(&dc.ID, &dc.Code, &dc.DiscountPercent, &dc.Description, &dc.ValidFrom, &dc.ValidUntil,
			&dc.MaxUses, &dc.UsedCount, &dc.IsActive, &dc.CreatedAt, &dc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, dc)
	}
	return list, total, rows.Err()
}
