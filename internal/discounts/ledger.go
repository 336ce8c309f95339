// Package discounts owns discount codes: CRUD, the activation flag, the
// validity predicate, and the atomic usage counter that redemption relies
// on. The ledger never performs redemption itself; bookings call RecordUse.
package discounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/pkg/queue"
)

var (
	// ErrNotFound means the discount code does not exist.
	ErrNotFound = errors.New("discount code not found")
	// ErrDuplicateCode means another code with the same (case-insensitive) string exists.
	ErrDuplicateCode = errors.New("discount code already exists")
	// ErrInvalidWindow means validFrom is not before validUntil.
	ErrInvalidWindow = errors.New("validFrom must be before validUntil")
	// ErrInvalidPercent means the percentage is outside [0,100].
	ErrInvalidPercent = errors.New("discount percent must be between 0 and 100")
	// ErrEmptyCode means the code string is blank.
	ErrEmptyCode = errors.New("code is required")
	// ErrInvalidMaxUses means the usage budget is below 1.
	ErrInvalidMaxUses = errors.New("maxUses must be at least 1")
	// ErrMaxUsesBelowUsed means an update would shrink maxUses under the recorded uses.
	ErrMaxUsesBelowUsed = errors.New("maxUses cannot be below usedCount")
	// ErrInUse means the code has recorded uses and cannot be deleted.
	ErrInUse = errors.New("discount code has recorded uses")
	// ErrExhausted means the usage budget is already spent.
	ErrExhausted = errors.New("discount code exhausted")
)

// Validity is the outcome of evaluating a code at a point in time.
type Validity string

const (
	ValidityValid       Validity = "valid"
	ValidityInactive    Validity = "inactive"
	ValidityNotYetValid Validity = "not_yet_valid"
	ValidityExpired     Validity = "expired"
	ValidityExhausted   Validity = "exhausted"
)

// Valid reports whether the code is redeemable.
func (v Validity) Valid() bool { return v == ValidityValid }

// Evaluate returns the validity of a code at asOf: valid only while active,
// within [validFrom, validUntil), and under budget. Exactly one reason is
// returned otherwise, checked in that order.
func Evaluate(dc *models.DiscountCode, asOf time.Time) Validity {
	switch {
	case !dc.IsActive:
		return ValidityInactive
	case asOf.Before(dc.ValidFrom):
		return ValidityNotYetValid
	case !asOf.Before(dc.ValidUntil):
		return ValidityExpired
	case dc.UsedCount >= dc.MaxUses:
		return ValidityExhausted
	default:
		return ValidityValid
	}
}

// Store is the persistence contract for the ledger. IncrementUse and
// Delete must be conditional on current state at the moment of the call so
// concurrent redemptions cannot overrun the budget.
type Store interface {
	Insert(ctx context.Context, dc *models.DiscountCode) error
	Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	// Update writes merged fields but never a max_uses below the stored
	// used_count; ErrMaxUsesBelowUsed otherwise.
	Update(ctx context.Context, dc *models.DiscountCode) (*models.DiscountCode, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.DiscountCode, error)
	// Delete removes the code only while used_count is zero; ErrInUse otherwise.
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementUse bumps used_count only while used_count < max_uses;
	// ErrExhausted otherwise, with no mutation.
	IncrementUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	// ReleaseUse undoes one recorded use, stopping at zero.
	ReleaseUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	List(ctx context.Context, offset, limit int) ([]models.DiscountCode, int, error)
}

// AuditSink records administrative decisions asynchronously.
type AuditSink interface {
	EnqueueAudit(ctx context.Context, p queue.AuditPayload) error
}

// Ledger implements discount code lifecycle rules over a Store.
type Ledger struct {
	store  Store
	audit  AuditSink
	logger *zap.Logger
}

// NewLedger creates a discount ledger. audit may be nil.
func NewLedger(store Store, audit AuditSink, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, audit: audit, logger: logger}
}

// CreateParams are the fields for a new discount code.
type CreateParams struct {
	Code            string
	DiscountPercent int
	Description     string
	ValidFrom       time.Time
	ValidUntil      time.Time
	MaxUses         int
	IsActive        bool
}

// Create validates and inserts a new code. Codes are stored upper-cased
// and compared case-insensitively.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (*models.DiscountCode, error) {
	code := normalizeCode(p.Code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	if err := validate(p.DiscountPercent, p.ValidFrom, p.ValidUntil, p.MaxUses); err != nil {
		return nil, err
	}
	dc := &models.DiscountCode{
		Code:            code,
		DiscountPercent: p.DiscountPercent,
		Description:     p.Description,
		ValidFrom:       p.ValidFrom,
		ValidUntil:      p.ValidUntil,
		MaxUses:         p.MaxUses,
		IsActive:        p.IsActive,
	}
	if err := l.store.Insert(ctx, dc); err != nil {
		return nil, err
	}
	l.logger.Info("discount code created", zap.String("code", dc.Code), zap.String("id", dc.ID.String()))
	return dc, nil
}

// UpdateParams are the optional fields for a partial update.
type UpdateParams struct {
	Code            *string
	DiscountPercent *int
	Description     *string
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	MaxUses         *int
	IsActive        *bool
}

// Update merges the given fields into the stored code and re-runs the
// create validations on the merged result before writing.
func (l *Ledger) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.DiscountCode, error) {
	dc, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Code != nil {
		code := normalizeCode(*p.Code)
		if code == "" {
			return nil, ErrEmptyCode
		}
		dc.Code = code
	}
	if p.DiscountPercent != nil {
		dc.DiscountPercent = *p.DiscountPercent
	}
	if p.Description != nil {
		dc.Description = *p.Description
	}
	if p.ValidFrom != nil {
		dc.ValidFrom = *p.ValidFrom
	}
	if p.ValidUntil != nil {
		dc.ValidUntil = *p.ValidUntil
	}
	if p.MaxUses != nil {
		dc.MaxUses = *p.MaxUses
	}
	if p.IsActive != nil {
		dc.IsActive = *p.IsActive
	}
	if err := validate(dc.DiscountPercent, dc.ValidFrom, dc.ValidUntil, dc.MaxUses); err != nil {
		return nil, err
	}
	if dc.MaxUses < dc.UsedCount {
		return nil, ErrMaxUsesBelowUsed
	}
	return l.store.Update(ctx, dc)
}

// Get returns a code by ID.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	return l.store.Get(ctx, id)
}

// ToggleActive sets the activation flag. Setting the current value is a
// no-op success.
func (l *Ledger) ToggleActive(ctx context.Context, id uuid.UUID, active bool, actorID uuid.UUID) (*models.DiscountCode, error) {
	dc, err := l.store.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	l.enqueueAudit(ctx, queue.AuditPayload{
		ActorID:    actorID,
		Action:     models.AuditActionCodeToggled,
		EntityKind: "discount_code",
		EntityID:   id,
	})
	return dc, nil
}

// Delete removes a code without recorded uses. Codes that have been
// redeemed fail with ErrInUse to preserve the redemption history; the
// caller should deactivate instead.
func (l *Ledger) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	l.enqueueAudit(ctx, queue.AuditPayload{
		ActorID:    actorID,
		Action:     models.AuditActionCodeDeleted,
		EntityKind: "discount_code",
		EntityID:   id,
	})
	return nil
}

// EvaluateValidity evaluates the code's redeemability at asOf without
// mutating anything.
func (l *Ledger) EvaluateValidity(ctx context.Context, id uuid.UUID, asOf time.Time) (Validity, error) {
	dc, err := l.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return Evaluate(dc, asOf), nil
}

// RecordUse consumes one use slot atomically. It fails with ErrExhausted,
// without mutation, once the budget is spent.
func (l *Ledger) RecordUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	dc, err := l.store.IncrementUse(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logger.Info("discount code used",
		zap.String("code", dc.Code),
		zap.Int("used_count", dc.UsedCount),
		zap.Int("max_uses", dc.MaxUses))
	return dc, nil
}

// ReleaseUse gives back one use slot, e.g. when the booking that consumed
// it could not be persisted. Releasing an unused code is a no-op.
func (l *Ledger) ReleaseUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	dc, err := l.store.ReleaseUse(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logger.Info("discount code use released",
		zap.String("code", dc.Code),
		zap.Int("used_count", dc.UsedCount))
	return dc, nil
}

// List returns codes newest-first with the total count.
func (l *Ledger) List(ctx context.Context, offset, limit int) ([]models.DiscountCode, int, error) {
	return l.store.List(ctx, offset, limit)
}

func (l *Ledger) enqueueAudit(ctx context.Context, p queue.AuditPayload) {
	if l.audit == nil {
		return
	}
	if err := l.audit.EnqueueAudit(ctx, p); err != nil {
		l.logger.Warn("audit enqueue failed", zap.Error(err), zap.String("action", p.Action))
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validate(percent int, from, until time.Time, maxUses int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidPercent
	}
	if !from.Before(until) {
		return ErrInvalidWindow
	}
	if maxUses < 1 {
		return ErrInvalidMaxUses
	}
	return nil
}
