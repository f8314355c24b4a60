package donor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/platform/metrics"
	"bloodlink/pkg/email"
	"bloodlink/pkg/platform/sentinel"
)

// ErrDuplicateContact is returned when the email or phone is already
// registered to another donor.
var ErrDuplicateContact = errors.New("email or phone already registered")

// RegisterInput carries raw donor registration fields from the boundary.
type RegisterInput struct {
	Name       string
	BloodGroup string
	Email      string
	Phone      string
	Location   string
}

// Service validates and persists donor registrations. It keeps orchestration
// out of handlers and domain logic thin.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, metrics: m, logger: logger}
}

// Register validates the input at the trust boundary, assigns identity and
// timestamps, and persists the donor.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Donor, error) {
	group, err := domain.ParseBloodGroup(strings.TrimSpace(in.BloodGroup))
	if err != nil {
		return domain.Donor{}, err
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	location := strings.TrimSpace(in.Location)
	if name == "" || phone == "" || location == "" {
		return domain.Donor{}, fmt.Errorf("%w: name, phone and location are required", domain.ErrInvalidInput)
	}
	address, err := email.Normalize(in.Email)
	if err != nil {
		return domain.Donor{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	d := domain.Donor{
		ID:           uuid.New(),
		Name:         name,
		BloodGroup:   group,
		Email:        address,
		Phone:        phone,
		Location:     location,
		RegisteredAt: time.Now(),
	}
	if err := s.store.Insert(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.Donor{}, ErrDuplicateContact
		}
		return domain.Donor{}, fmt.Errorf("register donor: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DonorsRegistered.Inc()
	}
	s.logger.InfoContext(ctx, "donor registered",
		"donor_id", d.ID,
		"blood_group", d.BloodGroup.String(),
		"location", d.Location,
	)
	return d, nil
}

// List returns every registered donor.
func (s *Service) List(ctx context.Context) ([]domain.Donor, error) {
	return s.store.ListAll(ctx)
}
