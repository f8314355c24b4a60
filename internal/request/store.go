package request

import (
	"context"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

// Store persists blood requests. UpdateStatus must be monotonic: once a
// request is matched it never reverts to open.
type Store interface {
	Insert(ctx context.Context, r domain.BloodRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.BloodRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error
}
