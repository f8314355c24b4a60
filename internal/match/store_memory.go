package match

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

type pairKey struct {
	requestID uuid.UUID
	donorID   uuid.UUID
}

// InMemoryStore mirrors the Postgres store's unique-pair semantics behind a
// single mutex, which doubles as the atomic check-and-insert.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]domain.Match
	byPair  map[pairKey]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		matches: make(map[uuid.UUID]domain.Match),
		byPair:  make(map[pairKey]uuid.UUID),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, m domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{requestID: m.RequestID, donorID: m.DonorID}
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrConflict
	}
	s.matches[m.ID] = m
	s.byPair[key] = m.ID
	return nil
}

func (s *InMemoryStore) ExistsFor(_ context.Context, requestID, donorID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPair[pairKey{requestID: requestID, donorID: donorID}]
	return ok, nil
}

func (s *InMemoryStore) FindFor(_ context.Context, requestID, donorID uuid.UUID) (domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{requestID: requestID, donorID: donorID}]
	if !ok {
		return domain.Match{}, sentinel.ErrNotFound
	}
	return s.matches[id], nil
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Match
	for _, m := range s.matches {
		if m.RequestID == requestID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}
