// Package testhelper starts a disposable PostgreSQL for integration tests
// and seeds report data into it.
package testhelper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	"github.com/checkscam/checkscam-backend/migrations"
)

// ExternalDSNEnv names a database to use instead of starting a container.
// It is migrated like a fresh one, so point it at a throwaway database.
const ExternalDSNEnv = "CHECKSCAM_TEST_DSN"

const (
	image    = "postgres:17-alpine"
	dbName   = "checkscam"
	dbUser   = "checkscam"
	dbSecret = "checkscam"
)

var (
	prepare    sync.Once
	dsn        string
	prepareErr error
)

// SetupTestDB returns a pool on a migrated database shared by the whole test
// binary. The pool is closed through t.Cleanup.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("testhelper: database tests skipped in -short mode")
	}

	prepare.Do(func() { dsn, prepareErr = prepareDatabase() })
	if prepareErr != nil {
		t.Fatalf("testhelper: prepare database: %v", prepareErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("testhelper: connect: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// DSN returns the shared database's connection string. Valid only after
// SetupTestDB.
func DSN() string {
	return dsn
}

func prepareDatabase() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	target := os.Getenv(ExternalDSNEnv)
	if target == "" {
		var err error
		if target, err = startContainer(ctx); err != nil {
			return "", err
		}
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := postgres.MigrateDSN(ctx, target, migrations.FS, quiet); err != nil {
		return "", err
	}
	return target, nil
}

// startContainer runs PostgreSQL until the test process exits.
func startContainer(ctx context.Context) (string, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbSecret,
			},
			// The server logs readiness twice: once for the init run, once for real.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", image, err)
	}

	endpoint, err := c.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		return "", fmt.Errorf("resolve postgres endpoint: %w", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", dbUser, dbSecret, endpoint, dbName), nil
}
