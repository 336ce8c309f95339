package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

// Repository handles user persistence for authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, email, password_hash, full_name, role, subscribed, COALESCE(subscription_type,''), retreat_owner, created_at, updated_at`

func (r *Repository) scanUser(ctx context.Context, q string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, q, args...).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
		&u.Subscribed, &u.SubscriptionType, &u.RetreatOwner, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanUser(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(ctx, `SELECT `+columns+` FROM users WHERE email = $1`, email)
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.User, error) {
	const q = `INSERT INTO users (id, email, password_hash, full_name, role)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING ` + columns
	return r.scanUser(ctx, q, email, passwordHash, fullName, string(role))
}
