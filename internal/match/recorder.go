package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/platform/metrics"
	"bloodlink/pkg/platform/sentinel"
)

// StatusStore is the slice of the request store the recorder needs to flip a
// request to matched.
type StatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error
}

// Guard is an optional distributed already-notified check in front of the
// match store. It is advisory: the store constraint remains the source of
// truth.
type Guard interface {
	Mark(ctx context.Context, requestID, donorID uuid.UUID) (bool, error)
	IsMarked(ctx context.Context, requestID, donorID uuid.UUID) (bool, error)
	Clear(ctx context.Context, requestID, donorID uuid.UUID) error
}

// Recorder persists which donors were notified for which request. Record is
// idempotent per (request, donor): duplicates return the existing record and
// log a warning rather than failing the batch.
type Recorder struct {
	matches  Store
	requests StatusStore
	guard    Guard // may be nil
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewRecorder(matches Store, requests StatusStore, guard Guard, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	return &Recorder{matches: matches, requests: requests, guard: guard, metrics: m, logger: logger}
}

// Record creates the match row for a notified donor and, on the first record
// for a request, transitions the request open -> matched. A duplicate call
// for the same pair returns the existing record unchanged.
func (r *Recorder) Record(ctx context.Context, requestID, donorID uuid.UUID, outcomes domain.DeliveryOutcomes) (domain.Match, error) {
	m := domain.Match{
		ID:         uuid.New(),
		RequestID:  requestID,
		DonorID:    donorID,
		NotifiedAt: time.Now(),
		Outcomes:   outcomes,
	}

	markedHere := false
	if r.guard != nil {
		marked, err := r.guard.Mark(ctx, requestID, donorID)
		if err != nil {
			// Guard outages must not block recording; the store
			// constraint still protects the invariant.
			r.logger.WarnContext(ctx, "notified guard unavailable", "error", err)
		} else {
			markedHere = marked
		}
	}

	if err := r.matches.Insert(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			r.logger.WarnContext(ctx, "duplicate match attempt",
				"request_id", requestID,
				"donor_id", donorID,
			)
			existing, findErr := r.matches.FindFor(ctx, requestID, donorID)
			if findErr != nil {
				return domain.Match{}, fmt.Errorf("%w: %v", domain.ErrAlreadyMatched, findErr)
			}
			return existing, nil
		}
		if markedHere {
			if clearErr := r.guard.Clear(ctx, requestID, donorID); clearErr != nil {
				r.logger.WarnContext(ctx, "failed to clear notified guard", "error", clearErr)
			}
		}
		return domain.Match{}, fmt.Errorf("record match: %w", err)
	}

	if r.metrics != nil {
		r.metrics.MatchesRecorded.Inc()
	}

	// Every successful record pushes the request forward; UpdateStatus is
	// monotonic and idempotent, so a transient failure here heals on the
	// next record for the same request.
	if err := r.requests.UpdateStatus(ctx, requestID, domain.RequestStatusMatched); err != nil {
		r.logger.WarnContext(ctx, "failed to mark request matched",
			"request_id", requestID,
			"error", err,
		)
	}
	return m, nil
}

// HasBeenNotified reports whether a donor already holds a match for the
// request. The guard answers first when present; a guard miss still consults
// the store since guard entries may expire.
func (r *Recorder) HasBeenNotified(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	if r.guard != nil {
		marked, err := r.guard.IsMarked(ctx, requestID, donorID)
		if err == nil && marked {
			return true, nil
		}
		if err != nil {
			r.logger.WarnContext(ctx, "notified guard unavailable", "error", err)
		}
	}
	return r.matches.ExistsFor(ctx, requestID, donorID)
}

// ListByRequest exposes the matches recorded for a request.
func (r *Recorder) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error) {
	return r.matches.ListByRequest(ctx, requestID)
}
