package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// tables in truncation order; CASCADE is not used so a missing table here fails loudly.
var tables = []string{"idempotency_cache", "order_events", "stock_movements", "orders", "products", "users"}

// SetupTestDB boots postgres:16-alpine with the schema from migrations/ and
// returns a pooled handle. No container runtime means the test is skipped.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	schema := schemaScripts(t)
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("orders_test"),
		postgres.WithUsername("orders"),
		postgres.WithPassword("orders"),
		postgres.WithInitScripts(schema...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pg); err != nil {
			t.Logf("postgres container teardown: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open %s: %v", dsn, err)
	}
	// Concurrency tests hold several row locks at once.
	db.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	return db
}

// Reset empties every table so a suite can reuse one container across tests.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE " + strings.Join(tables, ", ")); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

// schemaScripts lists migrations/*.up.sql in version order, located relative
// to this file so it works from any package directory.
func schemaScripts(t *testing.T) []string {
	t.Helper()

	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot resolve testutil source path")
	}
	root := filepath.Join(filepath.Dir(self), "..", "..")

	scripts, err := filepath.Glob(filepath.Join(root, "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(scripts) == 0 {
		t.Fatalf("no up migrations under %s", root)
	}
	sort.Strings(scripts)
	return scripts
}
