package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded on the match trail.
const (
	ActionDonorNotified    = "donor_notified"
	ActionRequestProcessed = "request_processed"
)

// Event is emitted from domain logic to capture per-donor notification
// outcomes for operators. Keep it transport-agnostic so stores and sinks can
// fan out.
type Event struct {
	Timestamp time.Time
	RequestID uuid.UUID
	DonorID   uuid.UUID
	Action    string
	Channel   string
	Outcome   string
	Reason    string
}

// Store is an append-only sink for events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]Event, error)
}
