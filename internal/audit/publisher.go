package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured match-trail events. It is append-only and
// uses the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, requestID uuid.UUID) ([]Event, error) {
	return p.store.ListByRequest(ctx, requestID)
}
