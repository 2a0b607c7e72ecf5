package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testDatabaseURLEnv points integration tests at a Postgres with the pgvector extension available.
const testDatabaseURLEnv = "TEXTEMBED_TEST_DATABASE_URL"

// setupTestDB connects to the integration database or skips the test.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv(testDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("Skipping integration test: %s is not set", testDatabaseURLEnv)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to create test database connection: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// uniqueIndexName returns a throwaway table name and drops it after the test.
func uniqueIndexName(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	name := "test_docs_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		if _, err := pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+name); err != nil {
			t.Logf("Warning: failed to drop %s: %v", name, err)
		}
	})
	return name
}
