package discounts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/internal/models"
)

// MemStore is an in-memory Store used in tests and local development. The
// mutex serializes every operation, matching the per-row atomicity of the
// SQL store.
type MemStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.DiscountCode
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{codes: make(map[uuid.UUID]*models.DiscountCode)}
}

func (s *MemStore) codeTaken(code string, exclude uuid.UUID) bool {
	for _, dc := range s.codes {
		if dc.ID != exclude && strings.EqualFold(dc.Code, code) {
			return true
		}
	}
	return false
}

// Insert creates a new discount code.
func (s *MemStore) Insert(ctx context.Context, dc *models.DiscountCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(dc.Code, uuid.Nil) {
		return ErrDuplicateCode
	}
	dc.ID = uuid.New()
	now := time.Now()
	dc.CreatedAt = now
	dc.UpdatedAt = now
	cp := *dc
	s.codes[dc.ID] = &cp
	return nil
}

// Get returns a copy of the discount code.
func (s *MemStore) Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc, ok := s.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *dc
	return &cp, nil
}

// Update writes merged fields, keeping the stored use counter.
func (s *MemStore) Update(ctx context.Context, dc *models.DiscountCode) (*models.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[dc.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.codeTaken(dc.Code, dc.ID) {
		return nil, ErrDuplicateCode
	}
	if dc.MaxUses < stored.UsedCount {
		return nil, ErrMaxUsesBelowUsed
	}
	stored.Code = dc.Code
	stored.DiscountPercent = dc.DiscountPercent
	stored.Description = dc.Description
	stored.ValidFrom = dc.ValidFrom
	stored.ValidUntil = dc.ValidUntil
	stored.MaxUses = dc.MaxUses
	stored.IsActive = dc.IsActive
	stored.UpdatedAt = time.Now()
	cp := *stored
	return &cp, nil
}

// SetActive sets the activation flag.
func (s *MemStore) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc, ok := s.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	dc.IsActive = active
	dc.UpdatedAt = time.Now()
	cp := *dc
	return &cp, nil
}

// Delete removes the code unless it has recorded uses.
func (s *MemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc, ok := s.codes[id]
	if !ok {
		return ErrNotFound
	}
	if dc.UsedCount > 0 {
		return ErrInUse
	}
	delete(s.codes, id)
	return nil
}

// IncrementUse bumps the counter under the lock, only while below budget.
func (s *MemStore) IncrementUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc, ok := s.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if dc.UsedCount >= dc.MaxUses {
		return nil, ErrExhausted
	}
	dc.UsedCount++
	dc.UpdatedAt = time.Now()
	cp := *dc
	return &cp, nil
}

// ReleaseUse lowers the counter under the lock, stopping at zero.
func (s *MemStore) ReleaseUse(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dc, ok := s.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if dc.UsedCount > 0 {
		dc.UsedCount--
		dc.UpdatedAt = time.Now()
	}
	cp := *dc
	return &cp, nil
}

// List returns codes newest-first with the total count.
func (s *MemStore) List(ctx context.Context, offset, limit int) ([]models.DiscountCode, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.DiscountCode, 0, len(s.codes))
	for _, dc := range s.codes {
		all = append(all, *dc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
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
