package publication

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heilen-retreats/backend/internal/models"
)

const uniqueViolation = "23505"

// Repository is the PostgreSQL Store. A partial unique index on
// publish_requests(retreat_id) WHERE resolution_state = 'pending' enforces
// the one-pending-request-per-retreat invariant, and resolution is a
// single conditional UPDATE so concurrent reviews serialize on the row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a publication repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const retreatColumns = `id, business_id, name, COALESCE(description,''), price_cents, currency, publish_status, created_at, updated_at`

func scanRetreat(row pgx.Row) (*models.Retreat, error) {
	var r models.Retreat
	err := row.Scan(&r.ID, &r.BusinessID, &r.Name, &r.Description, &r.PriceCents, &r.Currency, &r.PublishStatus, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRetreatNotFound
		}
		return nil, err
	}
	return &r, nil
}

// GetRetreat returns a retreat by ID.
func (r *Repository) GetRetreat(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	const q = `SELECT ` + retreatColumns + ` FROM retreats WHERE id = $1`
	return scanRetreat(r.pool.QueryRow(ctx, q, id))
}

// CreateRequest inserts a pending publish request and moves the retreat to
// pending_review in one transaction. The partial unique index turns a
// concurrent duplicate submission into ErrDuplicateRequest.
func (r *Repository) CreateRequest(ctx context.Context, retreatID uuid.UUID) (*models.PublishRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	req := models.PublishRequest{
		RetreatID:       retreatID,
		RequestedStatus: models.PublishStatusPublished,
		ResolutionState: models.ResolutionPending,
	}
	const insert = `INSERT INTO publish_requests (id, retreat_id, requested_status)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, submitted_at`
	if err := tx.QueryRow(ctx, insert, retreatID, req.RequestedStatus).Scan(&req.ID, &req.SubmittedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return nil, ErrDuplicateRequest
			case "23503": // retreat_id foreign key
				return nil, ErrRetreatNotFound
			}
		}
		return nil, err
	}

	const update = `UPDATE retreats SET publish_status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := tx.Exec(ctx, update, retreatID, models.PublishStatusPendingReview)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRetreatNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &req, nil
}

// ResolveRequest flips the request from pending exactly once and applies
// the outcome to the retreat. The conditional UPDATE is the commit point;
// a losing concurrent call matches zero rows and reports ErrAlreadyResolved.
func (r *Repository) ResolveRequest(ctx context.Context, requestID uuid.UUID, approve bool, remark string, reviewerID uuid.UUID) (*models.PublishRequest, *models.Retreat, error) {
	state := models.ResolutionApproved
	status := models.PublishStatusPublished
	if !approve {
		state = models.ResolutionRejected
		status = models.PublishStatusUnpublished
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const cas = `UPDATE publish_requests
		SET resolution_state = $2, resolved_by = $3, resolution_remark = $4, resolved_at = NOW()
		WHERE id = $1 AND resolution_state = 'pending'
		RETURNING id, retreat_id, requested_status, submitted_at, resolution_state, resolved_by, resolution_remark, resolved_at`
	var req models.PublishRequest
	err = tx.QueryRow(ctx, cas, requestID, state, reviewerID, remark).
		Scan(&req.ID, &req.RetreatID, &req.RequestedStatus, &req.SubmittedAt, &req.ResolutionState, &req.ResolvedBy, &req.ResolutionRemark, &req.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, r.classifyResolveMiss(ctx, requestID)
		}
		return nil, nil, err
	}

	const apply = `UPDATE retreats SET publish_status = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + retreatColumns
	retreat, err := scanRetreat(tx.QueryRow(ctx, apply, req.RetreatID, status))
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return &req, retreat, nil
}

// classifyResolveMiss distinguishes an unknown request from one resolved by
// an earlier call.
func (r *Repository) classifyResolveMiss(ctx context.Context, requestID uuid.UUID) error {
	const q = `SELECT resolution_state FROM publish_requests WHERE id = $1`
	var state models.ResolutionState
	if err := r.pool.QueryRow(ctx, q, requestID).Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		return err
	}
	return ErrAlreadyResolved
}

// SetRetreatStatus writes the publish status directly (admin override).
func (r *Repository) SetRetreatStatus(ctx context.Context, retreatID uuid.UUID, status models.PublishStatus) (*models.Retreat, error) {
	const q = `UPDATE retreats SET publish_status = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + retreatColumns
	return scanRetreat(r.pool.QueryRow(ctx, q, retreatID, status))
}

// ListRequests returns publish requests oldest-first with the total count.
func (r *Repository) ListRequests(ctx context.Context, pendingOnly bool, offset, limit int) ([]models.PublishRequest, int, error) {
	cond := ""
	if pendingOnly {
		cond = " WHERE resolution_state = 'pending'"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM publish_requests`+cond).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, retreat_id, requested_status, submitted_at, resolution_state, resolved_by, resolution_remark, resolved_at
		FROM publish_requests` + cond + ` ORDER BY submitted_at ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.PublishRequest
	for rows.Next() {
		var req models.PublishRequest
		var remark *string
		if err := rows.Scan(&req.ID, &req.RetreatID, &req.RequestedStatus, &req.SubmittedAt, &req.ResolutionState, &req.ResolvedBy, &remark, &req.ResolvedAt); err != nil {
			return nil, 0, err
		}
		if remark != nil {
			req.ResolutionRemark = *remark
		}
		list = append(list, req)
	}
	return list, total, rows.Err()
}
