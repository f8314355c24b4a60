package request

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]domain.BloodRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[uuid.UUID]domain.BloodRequest)}
}

func (s *InMemoryStore) Insert(_ context.Context, r domain.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[r.ID] = r
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (domain.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return r, nil
	}
	return domain.BloodRequest{}, sentinel.ErrNotFound
}

// UpdateStatus applies a forward status transition. Regressive updates are
// silently dropped so concurrent recorders cannot reopen a matched request.
func (s *InMemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !r.Status.CanTransitionTo(status) {
		return nil
	}
	r.Status = status
	s.requests[id] = r
	return nil
}
