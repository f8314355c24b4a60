package matching

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
	"bloodlink/internal/donor"
	"bloodlink/internal/match"
	"bloodlink/internal/request"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDonor(group domain.BloodGroup, location string, registeredAt time.Time) domain.Donor {
	id := uuid.New()
	return domain.Donor{
		ID:           id,
		Name:         "Donor " + id.String()[:8],
		BloodGroup:   group,
		Email:        id.String() + "@example.com",
		Phone:        "+91" + id.String()[:10],
		Location:     location,
		RegisteredAt: registeredAt,
	}
}

func newRequest(group domain.BloodGroup, location string) domain.BloodRequest {
	return domain.BloodRequest{
		ID:               uuid.New(),
		HospitalName:     "City Hospital",
		HospitalEmail:    "help@cityhospital.example",
		HospitalPhone:    "+911234567890",
		HospitalLocation: location,
		BloodGroup:       group,
		Urgency:          domain.UrgencyHigh,
		Status:           domain.RequestStatusOpen,
		CreatedAt:        time.Now(),
	}
}

// stubDispatcher records which donors were notified and returns canned
// outcomes.
type stubDispatcher struct {
	mu       sync.Mutex
	notified []uuid.UUID
	outcomes func(d domain.Donor) domain.DeliveryOutcomes
}

func (s *stubDispatcher) Notify(_ context.Context, d domain.Donor, _ domain.BloodRequest) domain.DeliveryOutcomes {
	s.mu.Lock()
	s.notified = append(s.notified, d.ID)
	s.mu.Unlock()
	if s.outcomes != nil {
		return s.outcomes(d)
	}
	return domain.DeliveryOutcomes{
		domain.ChannelEmail:    {Status: domain.DeliverySent},
		domain.ChannelWhatsApp: {Status: domain.DeliverySkipped},
	}
}

func (s *stubDispatcher) notifiedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notified)
}

type fixture struct {
	donors     *donor.InMemoryStore
	requests   *request.InMemoryStore
	matches    *match.InMemoryStore
	dispatcher *stubDispatcher
	service    *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		donors:     donor.NewInMemoryStore(),
		requests:   request.NewInMemoryStore(),
		matches:    match.NewInMemoryStore(),
		dispatcher: &stubDispatcher{},
	}
	recorder := match.NewRecorder(f.matches, f.requests, nil, nil, testLogger())
	f.service = NewService(f.donors, f.dispatcher, recorder, nil, testLogger(), opts...)
	return f
}

func (f *fixture) addDonors(t *testing.T, donors ...domain.Donor) {
	t.Helper()
	ctx := context.Background()
	for _, d := range donors {
		require.NoError(t, f.donors.Insert(ctx, d))
	}
}

func (f *fixture) addRequest(t *testing.T, r domain.BloodRequest) {
	t.Helper()
	require.NoError(t, f.requests.Insert(context.Background(), r))
}

func TestFindCandidatesFiltersIncompatibleGroups(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	compatible := newDonor(domain.BloodGroupOPos, "Delhi", now)
	universal := newDonor(domain.BloodGroupONeg, "Delhi", now)
	incompatible := newDonor(domain.BloodGroupABPos, "Delhi", now)

	candidates, err := f.service.FindCandidates(
		newRequest(domain.BloodGroupOPos, "Delhi"),
		[]domain.Donor{incompatible, compatible, universal},
	)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{compatible.ID, universal.ID}, ids)
}

func TestFindCandidatesLocalTierFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Now()
	localOld := newDonor(domain.BloodGroupONeg, "Pune", base.Add(-48*time.Hour))
	localNew := newDonor(domain.BloodGroupONeg, "Pune", base)
	remoteNew := newDonor(domain.BloodGroupONeg, "Delhi", base.Add(time.Hour))
	remoteOld := newDonor(domain.BloodGroupONeg, "Chennai", base.Add(-time.Hour))
	req := newRequest(domain.BloodGroupONeg, "Pune")

	// Input ordering must never matter.
	pools := [][]domain.Donor{
		{localOld, localNew, remoteNew, remoteOld},
		{remoteNew, remoteOld, localNew, localOld},
		{remoteOld, localOld, remoteNew, localNew},
	}
	for _, pool := range pools {
		candidates, err := f.service.FindCandidates(req, pool)
		require.NoError(t, err)
		require.Len(t, candidates, 4)
		assert.Equal(t, localNew.ID, candidates[0].ID, "newest local donor first")
		assert.Equal(t, localOld.ID, candidates[1].ID)
		assert.Equal(t, remoteNew.ID, candidates[2].ID, "remote tier after all locals")
		assert.Equal(t, remoteOld.ID, candidates[3].ID)
	}
}

func TestFindCandidatesRecencyTieBrokenByID(t *testing.T) {
	f := newFixture(t)
	ts := time.Now().Truncate(time.Second)
	a := newDonor(domain.BloodGroupONeg, "Pune", ts)
	b := newDonor(domain.BloodGroupONeg, "Pune", ts)
	req := newRequest(domain.BloodGroupONeg, "Pune")

	first, err := f.service.FindCandidates(req, []domain.Donor{a, b})
	require.NoError(t, err)
	second, err := f.service.FindCandidates(req, []domain.Donor{b, a})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID, "tie order must be deterministic")
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestFindCandidatesEdgeCases(t *testing.T) {
	f := newFixture(t)

	t.Run("empty pool is an empty result", func(t *testing.T) {
		candidates, err := f.service.FindCandidates(newRequest(domain.BloodGroupAPos, "Pune"), nil)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("invalid blood group fails", func(t *testing.T) {
		req := newRequest(domain.BloodGroupAPos, "Pune")
		req.BloodGroup = "Z+"
		_, err := f.service.FindCandidates(req, []domain.Donor{newDonor(domain.BloodGroupAPos, "Pune", time.Now())})
		assert.ErrorIs(t, err, domain.ErrInvalidBloodGroup)
	})

	t.Run("no local donors is not an error", func(t *testing.T) {
		remote := newDonor(domain.BloodGroupAPos, "Delhi", time.Now())
		candidates, err := f.service.FindCandidates(newRequest(domain.BloodGroupAPos, "Pune"), []domain.Donor{remote})
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, remote.ID, candidates[0].ID)
	})
}

// TestProcessCompatibilityScenario pins the O+ scenario: local O+ and local
// O- donors are notified, the remote AB+ donor is excluded outright.
func TestProcessCompatibilityScenario(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	a := newDonor(domain.BloodGroupOPos, "Mumbai", now)
	b := newDonor(domain.BloodGroupABPos, "Delhi", now)
	c := newDonor(domain.BloodGroupONeg, "Mumbai", now)
	f.addDonors(t, a, b, c)

	req := newRequest(domain.BloodGroupOPos, "Mumbai")
	f.addRequest(t, req)

	summary, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.LocalCandidateCount)
	assert.Equal(t, 0, summary.RemoteCandidateCount)
	assert.Equal(t, 2, summary.MatchesRecorded)

	matches, err := f.matches.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	notifiedIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		notifiedIDs = append(notifiedIDs, m.DonorID)
	}
	assert.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, notifiedIDs)

	stored, err := f.requests.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusMatched, stored.Status)
}

func TestProcessSkipsAlreadyNotifiedDonors(t *testing.T) {
	f := newFixture(t)
	d := newDonor(domain.BloodGroupOPos, "Mumbai", time.Now())
	f.addDonors(t, d)
	req := newRequest(domain.BloodGroupOPos, "Mumbai")
	f.addRequest(t, req)

	_, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, f.dispatcher.notifiedCount())

	// A second pass over the same request must not notify the donor again.
	summary, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.notifiedCount(), "donor notified at most once per request")
	assert.Equal(t, 0, summary.MatchesRecorded)

	matches, err := f.matches.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestProcessRecordsMatchOnPartialChannelFailure(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.outcomes = func(domain.Donor) domain.DeliveryOutcomes {
		return domain.DeliveryOutcomes{
			domain.ChannelEmail:    {Status: domain.DeliveryFailed, Reason: domain.ReasonTransientNetwork},
			domain.ChannelWhatsApp: {Status: domain.DeliverySent},
		}
	}
	d := newDonor(domain.BloodGroupBNeg, "Pune", time.Now())
	f.addDonors(t, d)
	req := newRequest(domain.BloodGroupBNeg, "Pune")
	f.addRequest(t, req)

	summary, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchesRecorded)

	m, err := f.matches.FindFor(context.Background(), req.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryFailed, m.Outcomes[domain.ChannelEmail].Status)
	assert.Equal(t, domain.ReasonTransientNetwork, m.Outcomes[domain.ChannelEmail].Reason)
	assert.Equal(t, domain.DeliverySent, m.Outcomes[domain.ChannelWhatsApp].Status)
}

func TestProcessLeavesRequestOpenWhenNoChannelDelivers(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.outcomes = func(domain.Donor) domain.DeliveryOutcomes {
		return domain.DeliveryOutcomes{
			domain.ChannelEmail:    {Status: domain.DeliveryFailed, Reason: domain.ReasonTimeout},
			domain.ChannelWhatsApp: {Status: domain.DeliverySkipped},
		}
	}
	d := newDonor(domain.BloodGroupAPos, "Pune", time.Now())
	f.addDonors(t, d)
	req := newRequest(domain.BloodGroupAPos, "Pune")
	f.addRequest(t, req)

	summary, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchesRecorded, "undelivered donors hold no match record")

	stored, err := f.requests.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, stored.Status)

	// The failed donor stays eligible for a later retry pass.
	summary, err = f.service.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.dispatcher.notifiedCount())
}

func TestProcessSameDonorAcrossRequests(t *testing.T) {
	f := newFixture(t)
	d := newDonor(domain.BloodGroupONeg, "Pune", time.Now())
	f.addDonors(t, d)

	first := newRequest(domain.BloodGroupONeg, "Pune")
	second := newRequest(domain.BloodGroupAPos, "Pune")
	f.addRequest(t, first)
	f.addRequest(t, second)

	_, err := f.service.Process(context.Background(), first)
	require.NoError(t, err)
	_, err = f.service.Process(context.Background(), second)
	require.NoError(t, err)

	n, err := f.matches.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "uniqueness is per request, not per donor")
}

func TestProcessRemoteCap(t *testing.T) {
	f := newFixture(t, WithRemoteCap(2))
	now := time.Now()
	local := newDonor(domain.BloodGroupONeg, "Pune", now)
	remotes := []domain.Donor{
		newDonor(domain.BloodGroupONeg, "Delhi", now.Add(3*time.Hour)),
		newDonor(domain.BloodGroupONeg, "Chennai", now.Add(2*time.Hour)),
		newDonor(domain.BloodGroupONeg, "Kolkata", now.Add(time.Hour)),
	}
	f.addDonors(t, local)
	f.addDonors(t, remotes...)

	req := newRequest(domain.BloodGroupONeg, "Pune")
	f.addRequest(t, req)

	summary, err := f.service.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.LocalCandidateCount)
	assert.Equal(t, 3, summary.RemoteCandidateCount, "summary reports all identified candidates")
	assert.Equal(t, 3, summary.MatchesRecorded, "local donor plus two capped remotes")
}
