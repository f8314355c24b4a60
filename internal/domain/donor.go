package domain

import (
	"time"

	"github.com/google/uuid"
)

// Donor is a registered blood donor. Immutable after creation; the matcher
// only ever reads it.
type Donor struct {
	ID           uuid.UUID
	Name         string
	BloodGroup   BloodGroup
	Email        string
	Phone        string // E.164-like, with country code
	Location     string // free-text city/district
	RegisteredAt time.Time
}
