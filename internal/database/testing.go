package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/quant-edge/internal/config"
)

// TestDatabaseEnv names the variable holding the integration database host.
const TestDatabaseEnv = "QUANT_EDGE_TEST_DB_HOST"

// SetupTestDB connects to the integration database, skipping the test when
// TestDatabaseEnv is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv(TestDatabaseEnv)
	if host == "" {
		t.Skipf("integration test - set %s to run", TestDatabaseEnv)
	}
	port, err := strconv.Atoi(getenv("QUANT_EDGE_TEST_DB_PORT", "5432"))
	if err != nil {
		t.Fatalf("invalid test database port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Enabled:  true,
		Host:     host,
		Port:     port,
		Name:     getenv("QUANT_EDGE_TEST_DB_NAME", "quant_edge_test"),
		User:     getenv("QUANT_EDGE_TEST_DB_USER", "quant_edge"),
		Password: os.Getenv("QUANT_EDGE_TEST_DB_PASSWORD"),
		SSLMode:  "disable",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := EnsureSchema(ctx, db.Querier()); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
