package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, r domain.BloodRequest) error {
	query := `
		INSERT INTO blood_requests
			(id, hospital_name, hospital_email, hospital_phone, hospital_location,
			 blood_group, patient_details, urgency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.HospitalName, r.HospitalEmail, r.HospitalPhone, r.HospitalLocation,
		r.BloodGroup.String(), r.PatientDetails, r.Urgency.String(), r.Status.String(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (domain.BloodRequest, error) {
	query := `
		SELECT id, hospital_name, hospital_email, hospital_phone, hospital_location,
		       blood_group, patient_details, urgency, status, created_at
		FROM blood_requests WHERE id = $1
	`
	var (
		r                      domain.BloodRequest
		group, urgency, status string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.HospitalName, &r.HospitalEmail, &r.HospitalPhone, &r.HospitalLocation,
		&group, &r.PatientDetails, &urgency, &status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BloodRequest{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.BloodRequest{}, fmt.Errorf("find request: %w", err)
	}
	r.BloodGroup = domain.BloodGroup(group)
	r.Urgency = domain.Urgency(urgency)
	r.Status = domain.RequestStatus(status)
	return r, nil
}

// UpdateStatus applies a forward transition in a single statement so
// concurrent recorders cannot reopen a matched request. The rank CASE mirrors
// domain.RequestStatus ordering.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error {
	query := `
		UPDATE blood_requests SET status = $2
		WHERE id = $1
		  AND CASE status WHEN 'open' THEN 0 WHEN 'matched' THEN 1 ELSE 2 END
		   <= CASE $2 WHEN 'open' THEN 0 WHEN 'matched' THEN 1 ELSE 2 END
	`
	res, err := s.db.ExecContext(ctx, query, id, status.String())
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either the request is unknown or the transition was regressive;
		// distinguish so callers get NotFound for missing rows.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM blood_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check request exists: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
	}
	return nil
}
