package request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/pkg/email"
)

// SubmitInput carries raw blood-request fields from the intake boundary.
type SubmitInput struct {
	HospitalName     string
	HospitalEmail    string
	HospitalPhone    string
	HospitalLocation string
	BloodGroup       string
	PatientDetails   string
	Urgency          string
}

// Service validates and persists incoming blood requests. Matching and
// notification are driven separately by the matching service.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Submit validates the input at the trust boundary and persists an open
// request.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.BloodRequest, error) {
	group, err := domain.ParseBloodGroup(strings.TrimSpace(in.BloodGroup))
	if err != nil {
		return domain.BloodRequest{}, err
	}
	urgency, err := domain.ParseUrgency(strings.TrimSpace(in.Urgency))
	if err != nil {
		return domain.BloodRequest{}, err
	}
	name := strings.TrimSpace(in.HospitalName)
	location := strings.TrimSpace(in.HospitalLocation)
	if name == "" || location == "" || strings.TrimSpace(in.HospitalPhone) == "" {
		return domain.BloodRequest{}, fmt.Errorf("%w: hospital name, phone and location are required", domain.ErrInvalidInput)
	}
	address, err := email.Normalize(in.HospitalEmail)
	if err != nil {
		return domain.BloodRequest{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	r := domain.BloodRequest{
		ID:               uuid.New(),
		HospitalName:     name,
		HospitalEmail:    address,
		HospitalPhone:    strings.TrimSpace(in.HospitalPhone),
		HospitalLocation: location,
		BloodGroup:       group,
		PatientDetails:   strings.TrimSpace(in.PatientDetails),
		Urgency:          urgency,
		Status:           domain.RequestStatusOpen,
		CreatedAt:        time.Now(),
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return domain.BloodRequest{}, fmt.Errorf("submit request: %w", err)
	}

	s.logger.InfoContext(ctx, "blood request submitted",
		"request_id", r.ID,
		"blood_group", r.BloodGroup.String(),
		"urgency", r.Urgency.String(),
		"hospital_location", r.HospitalLocation,
	)
	return r, nil
}

// Get returns a request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.BloodRequest, error) {
	return s.store.FindByID(ctx, id)
}
