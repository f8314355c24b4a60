package donor

import (
	"context"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
type Store interface {
	// Insert persists a new donor. Returns sentinel.ErrConflict when the
	// email or phone is already registered.
	Insert(ctx context.Context, d domain.Donor) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Donor, error)
	ListAll(ctx context.Context) ([]domain.Donor, error)
}
