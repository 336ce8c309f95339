// Package publication owns the publish-state lifecycle of retreats and the
// publish requests that drive it: submission, exactly-once review, and the
// direct admin override. Every decision carries a mandatory remark and is
// recorded on the audit trail.
package publication

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/pkg/queue"
)

var (
	// ErrRetreatNotFound means the referenced retreat does not exist.
	ErrRetreatNotFound = errors.New("retreat not found")
	// ErrRequestNotFound means the referenced publish request does not exist.
	ErrRequestNotFound = errors.New("publish request not found")
	// ErrDuplicateRequest means the retreat already has a pending request.
	ErrDuplicateRequest = errors.New("pending publish request already exists")
	// ErrAlreadyResolved means the request was resolved by an earlier call.
	ErrAlreadyResolved = errors.New("publish request already resolved")
	// ErrEmptyRemark means a decision was attempted without a remark.
	ErrEmptyRemark = errors.New("remark is required")
)

// Store is the persistence contract for the registry. Implementations must
// make CreateRequest and ResolveRequest atomic per retreat/request id so
// that concurrent submissions and reviews cannot both succeed.
type Store interface {
	// GetRetreat returns a retreat or ErrRetreatNotFound.
	GetRetreat(ctx context.Context, id uuid.UUID) (*models.Retreat, error)
	// CreateRequest inserts a pending request for the retreat and moves the
	// retreat to pending_review, atomically. Returns ErrDuplicateRequest if
	// a pending request already exists, ErrRetreatNotFound if the retreat
	// is unknown.
	CreateRequest(ctx context.Context, retreatID uuid.UUID) (*models.PublishRequest, error)
	// ResolveRequest performs the exactly-once compare-and-swap from
	// pending to approved/rejected, applies the resulting publish status to
	// the retreat, and returns both. Returns ErrRequestNotFound or
	// ErrAlreadyResolved without mutating anything.
	ResolveRequest(ctx context.Context, requestID uuid.UUID, approve bool, remark string, reviewerID uuid.UUID) (*models.PublishRequest, *models.Retreat, error)
	// SetRetreatStatus writes the publish status directly, touching no
	// request. Returns ErrRetreatNotFound.
	SetRetreatStatus(ctx context.Context, retreatID uuid.UUID, status models.PublishStatus) (*models.Retreat, error)
	// ListRequests returns requests ordered by submission time ascending,
	// optionally only pending ones, plus the total matching count.
	ListRequests(ctx context.Context, pendingOnly bool, offset, limit int) ([]models.PublishRequest, int, error)
}

// AuditSink records administrative decisions asynchronously.
type AuditSink interface {
	EnqueueAudit(ctx context.Context, p queue.AuditPayload) error
}

// Registry enforces the publication approval state machine.
type Registry struct {
	store  Store
	audit  AuditSink
	logger *zap.Logger
}

// NewRegistry creates a publication registry. audit may be nil.
func NewRegistry(store Store, audit AuditSink, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, audit: audit, logger: logger}
}

// Submit creates a pending publish request for the retreat and moves it to
// pending_review. Fails with ErrDuplicateRequest if one is already open.
func (r *Registry) Submit(ctx context.Context, retreatID uuid.UUID) (*models.PublishRequest, error) {
	req, err := r.store.CreateRequest(ctx, retreatID)
	if err != nil {
		return nil, err
	}
	r.logger.Info("publish request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("retreat_id", retreatID.String()))
	return req, nil
}

// Resolve approves or rejects a pending request, exactly once. Approval
// publishes the retreat; rejection returns it to unpublished. The returned
// retreat is the authoritative post-state.
func (r *Registry) Resolve(ctx context.Context, requestID uuid.UUID, approve bool, remark string, reviewerID uuid.UUID) (*models.Retreat, error) {
	action := models.AuditActionRequestApproved
	if !approve {
		action = models.AuditActionRequestRejected
	}
	return r.decide(ctx, remark, queue.AuditPayload{
		ActorID:    reviewerID,
		Action:     action,
		EntityKind: "publish_request",
		EntityID:   requestID,
	}, func(ctx context.Context) (*models.Retreat, error) {
		_, retreat, err := r.store.ResolveRequest(ctx, requestID, approve, remark, reviewerID)
		return retreat, err
	})
}

// SetPublishStatus is the direct admin override outside the request flow.
// It shares the remark contract with Resolve but never touches a request.
func (r *Registry) SetPublishStatus(ctx context.Context, retreatID uuid.UUID, publish bool, remark string, actorID uuid.UUID) (*models.Retreat, error) {
	status := models.PublishStatusUnpublished
	if publish {
		status = models.PublishStatusPublished
	}
	return r.decide(ctx, remark, queue.AuditPayload{
		ActorID:    actorID,
		Action:     models.AuditActionStatusOverride,
		EntityKind: "retreat",
		EntityID:   retreatID,
		Remark:     remark,
	}, func(ctx context.Context) (*models.Retreat, error) {
		return r.store.SetRetreatStatus(ctx, retreatID, status)
	})
}

// ListRequests returns publish requests oldest-first so review is biased
// toward first-in-first-out.
func (r *Registry) ListRequests(ctx context.Context, pendingOnly bool, offset, limit int) ([]models.PublishRequest, int, error) {
	return r.store.ListRequests(ctx, pendingOnly, offset, limit)
}

// decide is the shared remark-required decision path for Resolve and
// SetPublishStatus. Preconditions are checked before apply runs; the audit
// event is enqueued only after the mutation committed.
func (r *Registry) decide(ctx context.Context, remark string, audit queue.AuditPayload, apply func(context.Context) (*models.Retreat, error)) (*models.Retreat, error) {
	if strings.TrimSpace(remark) == "" {
		return nil, ErrEmptyRemark
	}
	if audit.Remark == "" {
		audit.Remark = remark
	}
	retreat, err := apply(ctx)
	if err != nil {
		return nil, err
	}
	if r.audit != nil {
		if err := r.audit.EnqueueAudit(ctx, audit); err != nil {
			r.logger.Warn("audit enqueue failed", zap.Error(err), zap.String("action", audit.Action))
		}
	}
	r.logger.Info("publish decision applied",
		zap.String("action", audit.Action),
		zap.String("entity_id", audit.EntityID.String()),
		zap.String("status", string(retreat.PublishStatus)))
	return retreat, nil
}
