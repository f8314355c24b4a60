package donor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

// PostgresStore persists donors in Postgres. Unique constraints on email and
// phone back the registration dedupe.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, d domain.Donor) error {
	query := `
		INSERT INTO donors (id, name, blood_group, email, phone, location, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Name, d.BloodGroup.String(), d.Email, d.Phone, d.Location, d.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (domain.Donor, error) {
	query := `
		SELECT id, name, blood_group, email, phone, location, registered_at
		FROM donors WHERE id = $1
	`
	var (
		d     domain.Donor
		group string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Name, &group, &d.Email, &d.Phone, &d.Location, &d.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Donor{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Donor{}, fmt.Errorf("find donor: %w", err)
	}
	d.BloodGroup = domain.BloodGroup(group)
	return d, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Donor, error) {
	query := `
		SELECT id, name, blood_group, email, phone, location, registered_at
		FROM donors
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	defer rows.Close()

	var donors []domain.Donor
	for rows.Next() {
		var (
			d     domain.Donor
			group string
		)
		if err := rows.Scan(&d.ID, &d.Name, &group, &d.Email, &d.Phone, &d.Location, &d.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		d.BloodGroup = domain.BloodGroup(group)
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint hit.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
