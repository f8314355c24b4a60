package stats

import (
	"context"
	"fmt"

	"bloodlink/internal/domain"
)

// DonorSource is the read slice of the donor store the aggregator needs.
type DonorSource interface {
	ListAll(ctx context.Context) ([]domain.Donor, error)
}

// MatchSource counts recorded matches.
type MatchSource interface {
	Count(ctx context.Context) (int, error)
}

// Service derives display aggregates from the donor and match repositories.
// Pure reads; results reflect repository state at call time.
type Service struct {
	donors  DonorSource
	matches MatchSource
}

func NewService(donors DonorSource, matches MatchSource) *Service {
	return &Service{donors: donors, matches: matches}
}

// DonorCountByGroup returns donor counts keyed by blood group.
func (s *Service) DonorCountByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	donors, err := s.donors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	counts := make(map[domain.BloodGroup]int)
	for _, d := range donors {
		counts[d.BloodGroup]++
	}
	return counts, nil
}

// DonorCountByLocation returns donor counts keyed by their free-text
// location, as registered.
func (s *Service) DonorCountByLocation(ctx context.Context) (map[string]int, error) {
	donors, err := s.donors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	counts := make(map[string]int)
	for _, d := range donors {
		counts[d.Location]++
	}
	return counts, nil
}

// TotalDonors returns the registered donor count.
func (s *Service) TotalDonors(ctx context.Context) (int, error) {
	donors, err := s.donors.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list donors: %w", err)
	}
	return len(donors), nil
}

// TotalMatchesMade returns how many donor-request connections were recorded.
func (s *Service) TotalMatchesMade(ctx context.Context) (int, error) {
	n, err := s.matches.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}

// Overview bundles the display aggregates for the stats endpoint.
type Overview struct {
	TotalDonors   int                       `json:"total_donors"`
	DonorsByGroup map[domain.BloodGroup]int `json:"donors_by_group"`
	DonorsByCity  map[string]int            `json:"donors_by_location"`
	TotalMatches  int                       `json:"total_matches"`
}

// Snapshot computes all aggregates in one pass over the donor pool.
func (s *Service) Snapshot(ctx context.Context) (Overview, error) {
	donors, err := s.donors.ListAll(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("list donors: %w", err)
	}
	matches, err := s.matches.Count(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("count matches: %w", err)
	}
	overview := Overview{
		TotalDonors:   len(donors),
		DonorsByGroup: make(map[domain.BloodGroup]int),
		DonorsByCity:  make(map[string]int),
		TotalMatches:  matches,
	}
	for _, d := range donors {
		overview.DonorsByGroup[d.BloodGroup]++
		overview.DonorsByCity[d.Location]++
	}
	return overview, nil
}
