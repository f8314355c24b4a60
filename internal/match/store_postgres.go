package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

// PostgresStore persists matches. A unique index on (request_id, donor_id)
// provides the atomic check-and-insert the at-most-once invariant requires.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, m domain.Match) error {
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}
	query := `
		INSERT INTO matches (id, request_id, donor_id, notified_at, outcomes)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query, m.ID, m.RequestID, m.DonorID, m.NotifiedAt, outcomes)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExistsFor(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE request_id = $1 AND donor_id = $2)`,
		requestID, donorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check match exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) FindFor(ctx context.Context, requestID, donorID uuid.UUID) (domain.Match, error) {
	query := `
		SELECT id, request_id, donor_id, notified_at, outcomes
		FROM matches WHERE request_id = $1 AND donor_id = $2
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, requestID, donorID))
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error) {
	query := `
		SELECT id, request_id, donor_id, notified_at, outcomes
		FROM matches WHERE request_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			m       domain.Match
			rawJSON []byte
		)
		if err := rows.Scan(&m.ID, &m.RequestID, &m.DonorID, &m.NotifiedAt, &rawJSON); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal(rawJSON, &m.Outcomes); err != nil {
			return nil, fmt.Errorf("unmarshal outcomes: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (domain.Match, error) {
	var (
		m       domain.Match
		rawJSON []byte
	)
	err := row.Scan(&m.ID, &m.RequestID, &m.DonorID, &m.NotifiedAt, &rawJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Match{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("scan match: %w", err)
	}
	if err := json.Unmarshal(rawJSON, &m.Outcomes); err != nil {
		return domain.Match{}, fmt.Errorf("unmarshal outcomes: %w", err)
	}
	return m, nil
}
