package matching

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bloodlink/internal/audit"
	"bloodlink/internal/domain"
	"bloodlink/internal/platform/metrics"

	"github.com/google/uuid"
)

// notifyConcurrency bounds the parallel fan-out per request so a large donor
// pool cannot exhaust outbound connections.
const notifyConcurrency = 16

// DonorLister is the slice of the donor store the matcher reads.
type DonorLister interface {
	ListAll(ctx context.Context) ([]domain.Donor, error)
}

// Dispatcher sends notifications; failures come back in the outcome map.
type Dispatcher interface {
	Notify(ctx context.Context, donor domain.Donor, req domain.BloodRequest) domain.DeliveryOutcomes
}

// Recorder persists notified pairs with at-most-once semantics.
type Recorder interface {
	Record(ctx context.Context, requestID, donorID uuid.UUID, outcomes domain.DeliveryOutcomes) (domain.Match, error)
	HasBeenNotified(ctx context.Context, requestID, donorID uuid.UUID) (bool, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error)
}

// Auditor receives per-donor notification events for operators. The request
// submitter only ever sees aggregate counts.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Summary is the only data returned to the requester: aggregate counts, no
// donor identity.
type Summary struct {
	LocalCandidateCount  int `json:"local_candidate_count"`
	RemoteCandidateCount int `json:"remote_candidate_count"`
	MatchesRecorded      int `json:"matches_recorded"`
}

// Service matches a blood request against the donor pool and drives the
// notification fan-out.
type Service struct {
	donors     DonorLister
	dispatcher Dispatcher
	recorder   Recorder
	auditor    Auditor // may be nil
	tier       TierFunc
	remoteCap  int // 0 = notify all remote donors (default policy)
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithTierFunc swaps the locality predicate.
func WithTierFunc(fn TierFunc) Option {
	return func(s *Service) { s.tier = fn }
}

// WithRemoteCap limits how many remote-tier donors are notified per request.
// Zero, the default, notifies every compatible donor.
func WithRemoteCap(n int) Option {
	return func(s *Service) { s.remoteCap = n }
}

// WithAuditor attaches a per-donor event sink.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(donors DonorLister, dispatcher Dispatcher, recorder Recorder, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		donors:     donors,
		dispatcher: dispatcher,
		recorder:   recorder,
		tier:       SameLocality,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("bloodlink/matching"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FindCandidates filters the pool to donors compatible with the request's
// required group and orders them local tier first. Within each tier more
// recently registered donors come first, with the donor ID as a
// deterministic tiebreak. Input ordering of the pool never matters.
//
// Errors: ErrInvalidBloodGroup when the request carries an unknown group. An
// empty pool or an empty local tier is a normal empty result, not an error.
func (s *Service) FindCandidates(req domain.BloodRequest, pool []domain.Donor) ([]domain.Donor, error) {
	local, remote, err := s.Tier(req, pool)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

// Tier splits the pool into its ordered local and remote candidate tiers.
func (s *Service) Tier(req domain.BloodRequest, pool []domain.Donor) (local, remote []domain.Donor, err error) {
	compatible, err := domain.CompatibleDonorGroups(req.BloodGroup)
	if err != nil {
		return nil, nil, err
	}
	eligible := make(map[domain.BloodGroup]bool, len(compatible))
	for _, g := range compatible {
		eligible[g] = true
	}

	for _, d := range pool {
		if !eligible[d.BloodGroup] {
			continue
		}
		if s.tier(d.Location, req.HospitalLocation) {
			local = append(local, d)
		} else {
			remote = append(remote, d)
		}
	}
	sortByRecency(local)
	sortByRecency(remote)
	return local, remote, nil
}

// sortByRecency orders donors newest-first; more recently active donors are
// assumed more reachable.
func sortByRecency(donors []domain.Donor) {
	sort.Slice(donors, func(i, j int) bool {
		if !donors[i].RegisteredAt.Equal(donors[j].RegisteredAt) {
			return donors[i].RegisteredAt.After(donors[j].RegisteredAt)
		}
		return bytes.Compare(donors[i].ID[:], donors[j].ID[:]) < 0
	})
}

// MatchesFor returns how many donors hold match records for the request.
func (s *Service) MatchesFor(ctx context.Context, requestID uuid.UUID) (int, error) {
	matches, err := s.recorder.ListByRequest(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("list matches: %w", err)
	}
	return len(matches), nil
}

// Process is the matching entry point: it selects candidates, notifies them
// concurrently, and records the outcomes. Per-donor failures are isolated
// and reflected in the summary; only a failing donor repository aborts the
// unit of work.
func (s *Service) Process(ctx context.Context, req domain.BloodRequest) (Summary, error) {
	ctx, span := s.tracer.Start(ctx, "matching.Process",
		trace.WithAttributes(
			attribute.String("request.id", req.ID.String()),
			attribute.String("request.blood_group", req.BloodGroup.String()),
			attribute.String("request.urgency", req.Urgency.String()),
		))
	defer span.End()

	pool, err := s.donors.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list donors: %w", err)
	}

	local, remote, err := s.Tier(req, pool)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		LocalCandidateCount:  len(local),
		RemoteCandidateCount: len(remote),
	}

	capped := remote
	if s.remoteCap > 0 && len(capped) > s.remoteCap {
		capped = capped[:s.remoteCap]
	}
	candidates := append(append([]domain.Donor{}, local...), capped...)

	var recorded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, d := range candidates {
		donor := d
		// Candidate goroutines always return nil: one donor's failure
		// must never cancel the rest of the fan-out.
		g.Go(func() error {
			s.notifyOne(gctx, req, donor, &recorded)
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.RequestsProcessed.Inc()
	}
	summary.MatchesRecorded = int(recorded.Load())
	span.SetAttributes(
		attribute.Int("candidates.local", summary.LocalCandidateCount),
		attribute.Int("candidates.remote", summary.RemoteCandidateCount),
		attribute.Int("matches.recorded", summary.MatchesRecorded),
	)
	s.logger.InfoContext(ctx, "request processed",
		"request_id", req.ID,
		"local_candidates", summary.LocalCandidateCount,
		"remote_candidates", summary.RemoteCandidateCount,
		"matches_recorded", summary.MatchesRecorded,
	)
	return summary, nil
}

func (s *Service) notifyOne(ctx context.Context, req domain.BloodRequest, donor domain.Donor, recorded *atomic.Int64) {
	notified, err := s.recorder.HasBeenNotified(ctx, req.ID, donor.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "notified check failed",
			"request_id", req.ID, "donor_id", donor.ID, "error", err)
		return
	}
	if notified {
		return
	}

	outcomes := s.dispatcher.Notify(ctx, donor, req)
	s.emitAudit(ctx, req, donor, outcomes)

	// A donor with no delivered channel holds no match record, so a later
	// pass may retry the whole notification.
	if !outcomes.AnySent() {
		return
	}
	if _, err := s.recorder.Record(ctx, req.ID, donor.ID, outcomes); err != nil {
		s.logger.ErrorContext(ctx, "match record failed",
			"request_id", req.ID, "donor_id", donor.ID, "error", err)
		return
	}
	recorded.Add(1)
}

func (s *Service) emitAudit(ctx context.Context, req domain.BloodRequest, donor domain.Donor, outcomes domain.DeliveryOutcomes) {
	if s.auditor == nil {
		return
	}
	for ch, outcome := range outcomes {
		event := audit.Event{
			RequestID: req.ID,
			DonorID:   donor.ID,
			Action:    audit.ActionDonorNotified,
			Channel:   string(ch),
			Outcome:   string(outcome.Status),
			Reason:    string(outcome.Reason),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "error", err)
		}
	}
}
