package donor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryStore keeps the initial implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	donors  map[uuid.UUID]domain.Donor
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		donors:  make(map[uuid.UUID]domain.Donor),
		byEmail: make(map[string]uuid.UUID),
		byPhone: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, d domain.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[d.Email]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byPhone[d.Phone]; exists {
		return sentinel.ErrConflict
	}
	s.donors[d.ID] = d
	s.byEmail[d.Email] = d.ID
	s.byPhone[d.Phone] = d.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (domain.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donors[id]; ok {
		return d, nil
	}
	return domain.Donor{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]domain.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Donor, 0, len(s.donors))
	for _, d := range s.donors {
		out = append(out, d)
	}
	return out, nil
}
