// AngelaMos | 2026
// testdb.go

// Package testdb starts a throwaway PostgreSQL for integration tests. Tests
// using it are skipped unless TEST_INTEGRATION is set.
package testdb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/joborders/internal/core"
)

const image = "docker.io/postgres:17-alpine"

// Start runs a migrated database and returns a connection to it.
func Start(t *testing.T) *sqlx.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("joborders_test"),
		postgres.WithUsername("joborders"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := core.Migrate(dsn, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// InsertUser adds a bare user row and returns its id.
func InsertUser(t *testing.T, db *sqlx.DB, id, name, email string) string {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1, $2, 'x', $3)`,
		id, email, name,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}
