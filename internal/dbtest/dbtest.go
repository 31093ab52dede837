// Package dbtest provides a migrated Postgres database for repository tests.
//
// TEST_DATABASE_URL wins when set. Otherwise a postgres container is started
// once per test binary through testcontainers; tests are skipped when no
// container runtime is available. Packages using Open call Main from TestMain
// so the container is terminated when the binary exits.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"voicenotes/internal/db"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
	container testcontainers.Container
)

// Main runs the package's tests, then terminates the container if one was started.
func Main(m *testing.M) {
	code := m.Run()
	if err := Terminate(); err != nil {
		fmt.Fprintf(os.Stderr, "dbtest: terminate: %v\n", err)
	}
	os.Exit(code)
}

// Terminate stops the shared container. It is a no-op when none was started.
func Terminate() error {
	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := container.Terminate(ctx)
	container = nil
	return err
}

// Open returns a *gorm.DB on a migrated schema. The pool is closed via t.Cleanup.
// Tests share the database, so they must create their own users (unique external ids).
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	once.Do(func() {
		if dsn == "" {
			sharedDSN, initErr = startContainer()
		} else {
			sharedDSN = dsn
		}
		if initErr == nil {
			initErr = db.Migrate(sharedDSN)
		}
	})
	if initErr != nil {
		t.Fatalf("dbtest: setup: %v", initErr)
	}

	gdb, err := db.Connect(sharedDSN, db.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("dbtest: connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	return gdb
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "voicenotes",
			"POSTGRES_PASSWORD": "voicenotes",
			"POSTGRES_DB":       "voicenotes_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if c != nil {
		container = c
	}
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://voicenotes:voicenotes@%s:%s/voicenotes_test?sslmode=disable", host, port.Port()), nil
}
