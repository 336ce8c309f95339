package businesses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// ErrNotFound means the business does not exist.
var ErrNotFound = errors.New("business not found")

// Repository handles business persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a businesses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, owner_id, name, email, COALESCE(phone,''), COALESCE(country,''), is_published, created_at, updated_at`

// GetByID returns a business by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	const q = `SELECT ` + columns + ` FROM businesses WHERE id = $1`
	var b models.Business
	err := r.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Email, &b.Phone, &b.Country, &b.IsPublished, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns businesses newest-first with the total count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Business, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + columns + ` FROM businesses ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Email, &b.Phone, &b.Country, &b.IsPublished, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}
