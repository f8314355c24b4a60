package match

import (
	"context"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

// Store persists match records. Insert must enforce (RequestID, DonorID)
// uniqueness atomically: that constraint is what guarantees a donor is
// notified at most once per request under concurrent writers.
type Store interface {
	// Insert persists a new match. Returns sentinel.ErrConflict when a
	// match for the same (request, donor) pair already exists.
	Insert(ctx context.Context, m domain.Match) error
	ExistsFor(ctx context.Context, requestID, donorID uuid.UUID) (bool, error)
	FindFor(ctx context.Context, requestID, donorID uuid.UUID) (domain.Match, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error)
	Count(ctx context.Context) (int, error)
}
