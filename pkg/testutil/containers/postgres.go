//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema bootstraps the tables the stores expect. The unique constraints are
// load-bearing: donor contact dedupe and the at-most-once match invariant
// both ride on them.
const schema = `
CREATE TABLE IF NOT EXISTS donors (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	blood_group VARCHAR(3) NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL UNIQUE,
	location TEXT NOT NULL,
	registered_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS blood_requests (
	id UUID PRIMARY KEY,
	hospital_name TEXT NOT NULL,
	hospital_email TEXT NOT NULL,
	hospital_phone TEXT NOT NULL,
	hospital_location TEXT NOT NULL,
	blood_group VARCHAR(3) NOT NULL,
	patient_details TEXT NOT NULL DEFAULT '',
	urgency VARCHAR(10) NOT NULL,
	status VARCHAR(10) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id UUID PRIMARY KEY,
	request_id UUID NOT NULL REFERENCES blood_requests (id) ON DELETE CASCADE,
	donor_id UUID NOT NULL REFERENCES donors (id) ON DELETE CASCADE,
	notified_at TIMESTAMPTZ NOT NULL,
	outcomes JSONB NOT NULL,
	UNIQUE (request_id, donor_id)
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bloodlink_test"),
		tcpostgres.WithUsername("bloodlink"),
		tcpostgres.WithPassword("bloodlink"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DB: db}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
