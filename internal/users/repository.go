package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// ErrNotFound means the user does not exist.
var ErrNotFound = errors.New("user not found")

// Repository handles user persistence for the admin console.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, email, full_name, role, subscribed, COALESCE(subscription_type,''), retreat_owner, created_at`

// List returns users newest-first with the total count, optionally
// filtered by an email substring (the console's search box).
func (r *Repository) List(ctx context.Context, emailFilter string, offset, limit int) ([]models.UserPublic, int, error) {
	cond := ""
	var countArgs, args []interface{}
	if emailFilter != "" {
		cond = ` WHERE email ILIKE '%' || $1 || '%'`
		countArgs = append(countArgs, emailFilter)
		args = append(args, emailFilter, limit, offset)
	} else {
		args = append(args, limit, offset)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+cond, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + columns + ` FROM users` + cond + ` ORDER BY created_at DESC`
	if emailFilter != "" {
		q += ` LIMIT $2 OFFSET $3`
	} else {
		q += ` LIMIT $1 OFFSET $2`
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Subscribed, &u.SubscriptionType, &u.RetreatOwner, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, u)
	}
	return list, total, rows.Err()
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE id = $1`
	var u models.UserPublic
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Subscribed, &u.SubscriptionType, &u.RetreatOwner, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateSubscription sets the subscription flag and tier for a user.
func (r *Repository) UpdateSubscription(ctx context.Context, id uuid.UUID, subscribed bool, subscriptionType string) (*models.UserPublic, error) {
	const q = `UPDATE users SET subscribed = $2, subscription_type = NULLIF($3,''), updated_at = NOW() WHERE id = $1
		RETURNING ` + columns
	var u models.UserPublic
	err := r.pool.QueryRow(ctx, q, id, subscribed, subscriptionType).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Subscribed, &u.SubscriptionType, &u.RetreatOwner, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
