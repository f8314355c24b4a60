//go:build integration

package match_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/domain"
	"bloodlink/internal/donor"
	"bloodlink/internal/match"
	"bloodlink/internal/request"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	donors   *donor.PostgresStore
	requests *request.PostgresStore
	matches  *match.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.donors = donor.NewPostgres(s.pg.DB)
	s.requests = request.NewPostgres(s.pg.DB)
	s.matches = match.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "matches", "blood_requests", "donors"))
}

func (s *PostgresStoreSuite) seedDonor() domain.Donor {
	id := uuid.New()
	d := domain.Donor{
		ID:           id,
		Name:         "Integration Donor",
		BloodGroup:   domain.BloodGroupOPos,
		Email:        id.String() + "@example.com",
		Phone:        "+91" + id.String()[:10],
		Location:     "Pune",
		RegisteredAt: time.Now().UTC(),
	}
	s.Require().NoError(s.donors.Insert(s.ctx, d))
	return d
}

func (s *PostgresStoreSuite) seedRequest() domain.BloodRequest {
	r := domain.BloodRequest{
		ID:               uuid.New(),
		HospitalName:     "City Hospital",
		HospitalEmail:    "blood@cityhospital.example",
		HospitalPhone:    "+911122334455",
		HospitalLocation: "Pune",
		BloodGroup:       domain.BloodGroupOPos,
		Urgency:          domain.UrgencyHigh,
		Status:           domain.RequestStatusOpen,
		CreatedAt:        time.Now().UTC(),
	}
	s.Require().NoError(s.requests.Insert(s.ctx, r))
	return r
}

func (s *PostgresStoreSuite) TestInsertAndRoundtrip() {
	d := s.seedDonor()
	r := s.seedRequest()

	m := domain.Match{
		ID:         uuid.New(),
		RequestID:  r.ID,
		DonorID:    d.ID,
		NotifiedAt: time.Now().UTC(),
		Outcomes: domain.DeliveryOutcomes{
			domain.ChannelEmail:    {Status: domain.DeliverySent},
			domain.ChannelWhatsApp: {Status: domain.DeliveryFailed, Reason: domain.ReasonInvalidRecipient},
		},
	}
	s.Require().NoError(s.matches.Insert(s.ctx, m))

	got, err := s.matches.FindFor(s.ctx, r.ID, d.ID)
	s.Require().NoError(err)
	s.Equal(m.ID, got.ID)
	s.Equal(domain.DeliverySent, got.Outcomes[domain.ChannelEmail].Status)
	s.Equal(domain.ReasonInvalidRecipient, got.Outcomes[domain.ChannelWhatsApp].Reason)

	exists, err := s.matches.ExistsFor(s.ctx, r.ID, d.ID)
	s.Require().NoError(err)
	s.True(exists)

	n, err := s.matches.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

// TestConcurrentInsertSamePair proves the unique constraint is the real
// at-most-once enforcement: fifty writers race the same pair and exactly one
// row lands.
func (s *PostgresStoreSuite) TestConcurrentInsertSamePair() {
	d := s.seedDonor()
	r := s.seedRequest()

	const writers = 50
	results := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.matches.Insert(s.ctx, domain.Match{
				ID:         uuid.New(),
				RequestID:  r.ID,
				DonorID:    d.ID,
				NotifiedAt: time.Now().UTC(),
				Outcomes:   domain.DeliveryOutcomes{domain.ChannelEmail: {Status: domain.DeliverySent}},
			})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			s.ErrorIs(err, sentinel.ErrConflict)
			conflicted++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(writers-1, conflicted)

	n, err := s.matches.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestDonorContactUniqueness() {
	d := s.seedDonor()

	dup := d
	dup.ID = uuid.New()
	err := s.donors.Insert(s.ctx, dup)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestRequestStatusMonotonic() {
	r := s.seedRequest()

	s.Require().NoError(s.requests.UpdateStatus(s.ctx, r.ID, domain.RequestStatusMatched))
	s.Require().NoError(s.requests.UpdateStatus(s.ctx, r.ID, domain.RequestStatusOpen))

	got, err := s.requests.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusMatched, got.Status)
}

func (s *PostgresStoreSuite) TestRecorderAgainstPostgres() {
	d := s.seedDonor()
	r := s.seedRequest()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := match.NewRecorder(s.matches, s.requests, nil, nil, logger)

	first, err := recorder.Record(s.ctx, r.ID, d.ID, domain.DeliveryOutcomes{
		domain.ChannelEmail: {Status: domain.DeliverySent},
	})
	s.Require().NoError(err)

	second, err := recorder.Record(s.ctx, r.ID, d.ID, domain.DeliveryOutcomes{
		domain.ChannelEmail: {Status: domain.DeliveryFailed, Reason: domain.ReasonTimeout},
	})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	got, err := s.requests.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusMatched, got.Status)
}
