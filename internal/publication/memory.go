package publication

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/internal/models"
)

// MemStore is an in-memory Store used in tests and local development. A
// single mutex serializes every operation, which gives the same atomicity
// the SQL store gets from conditional statements.
type MemStore struct {
	mu       sync.Mutex
	retreats map[uuid.UUID]*models.Retreat
	requests map[uuid.UUID]*models.PublishRequest
	order    []uuid.UUID // request ids in submission order
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		retreats: make(map[uuid.UUID]*models.Retreat),
		requests: make(map[uuid.UUID]*models.PublishRequest),
	}
}

// AddRetreat seeds a retreat, assigning an ID if missing.
func (s *MemStore) AddRetreat(r *models.Retreat) *models.Retreat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.PublishStatus == "" {
		r.PublishStatus = models.PublishStatusUnpublished
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	cp := *r
	s.retreats[r.ID] = &cp
	return r
}

// GetRetreat returns a copy of the retreat.
func (s *MemStore) GetRetreat(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.retreats[id]
	if !ok {
		return nil, ErrRetreatNotFound
	}
	cp := *r
	return &cp, nil
}

// CreateRequest inserts a pending request if none exists for the retreat.
func (s *MemStore) CreateRequest(ctx context.Context, retreatID uuid.UUID) (*models.PublishRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	retreat, ok := s.retreats[retreatID]
	if !ok {
		return nil, ErrRetreatNotFound
	}
	for _, req := range s.requests {
		if req.RetreatID == retreatID && req.ResolutionState == models.ResolutionPending {
			return nil, ErrDuplicateRequest
		}
	}
	req := &models.PublishRequest{
		ID:              uuid.New(),
		RetreatID:       retreatID,
		RequestedStatus: models.PublishStatusPublished,
		SubmittedAt:     time.Now(),
		ResolutionState: models.ResolutionPending,
	}
	s.requests[req.ID] = req
	s.order = append(s.order, req.ID)
	retreat.PublishStatus = models.PublishStatusPendingReview
	retreat.UpdatedAt = time.Now()
	cp := *req
	return &cp, nil
}

// ResolveRequest applies the exactly-once check-and-set under the lock.
func (s *MemStore) ResolveRequest(ctx context.Context, requestID uuid.UUID, approve bool, remark string, reviewerID uuid.UUID) (*models.PublishRequest, *models.Retreat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, nil, ErrRequestNotFound
	}
	if req.ResolutionState != models.ResolutionPending {
		return nil, nil, ErrAlreadyResolved
	}
	retreat, ok := s.retreats[req.RetreatID]
	if !ok {
		return nil, nil, ErrRetreatNotFound
	}
	now := time.Now()
	if approve {
		req.ResolutionState = models.ResolutionApproved
		retreat.PublishStatus = models.PublishStatusPublished
	} else {
		req.ResolutionState = models.ResolutionRejected
		retreat.PublishStatus = models.PublishStatusUnpublished
	}
	req.ResolvedBy = &reviewerID
	req.ResolutionRemark = remark
	req.ResolvedAt = &now
	retreat.UpdatedAt = now
	reqCp := *req
	retCp := *retreat
	return &reqCp, &retCp, nil
}

// SetRetreatStatus writes the publish status directly.
func (s *MemStore) SetRetreatStatus(ctx context.Context, retreatID uuid.UUID, status models.PublishStatus) (*models.Retreat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	retreat, ok := s.retreats[retreatID]
	if !ok {
		return nil, ErrRetreatNotFound
	}
	retreat.PublishStatus = status
	retreat.UpdatedAt = time.Now()
	cp := *retreat
	return &cp, nil
}

// ListRequests returns requests in submission order with the total count.
func (s *MemStore) ListRequests(ctx context.Context, pendingOnly bool, offset, limit int) ([]models.PublishRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.PublishRequest
	for _, id := range s.order {
		req := s.requests[id]
		if pendingOnly && req.ResolutionState != models.ResolutionPending {
			continue
		}
		all = append(all, *req)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
