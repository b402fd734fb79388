// Package testutil provides test helpers for the PostgreSQL integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/rolling/internal/config"
	"github.com/cory-johannsen/rolling/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container, connects a Pool
// and applies the schema migrations. The test is skipped in -short mode.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a migrated database,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in -short mode")
	}
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(pool.Close)
	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{container: container, Pool: pool, Config: dbCfg}
	pc.ApplyMigrations(t)
	return pc
}

// ApplyMigrations executes every up migration of the repository's
// migrations directory in version order.
//
// Precondition: Pool must be connected.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	dir := MigrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("listing migrations: %v", err)
	}
	sort.Strings(files)
	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading migration %s: %v", f, err)
		}
		if _, err := pc.Pool.DB().Exec(ctx, string(sql)); err != nil {
			t.Fatalf("applying migration %s: %v", filepath.Base(f), err)
		}
	}
	t.Logf("%d migrations applied [%s]", len(files), time.Since(start))
}

// MigrationsDir returns the absolute path of the repository's migrations directory.
func MigrationsDir(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("locating testutil source file")
	}
	// file is <root>/internal/testutil/postgres.go
	root := strings.TrimSuffix(filepath.Dir(file), filepath.Join("internal", "testutil"))
	return filepath.Join(root, "migrations")
}

// NewStore returns repositories over a fresh migrated database.
func NewStore(t *testing.T) (*postgres.Pool, *postgres.Store) {
	t.Helper()
	pc := NewPostgresContainer(t)
	return pc.Pool, pc.Pool.Store()
}
