//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	code, err := run(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[it]", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(m *testing.M) (int, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("vidtube_test"),
		postgres.WithUsername("vidtube"),
		postgres.WithPassword("vidtube"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return 0, fmt.Errorf("start postgres: %w", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return 0, err
	}
	if err := pg.Migrate(ctx, testDSN); err != nil {
		return 0, err
	}
	return m.Run(), nil
}

func newDB(t *testing.T) *pg.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := pg.NewDB(ctx, pg.Config{DSN: testDSN, MaxConns: 8, QueryTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("[db] connect: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// openSQL gives raw access to the schema through database/sql.
func openSQL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", testDSN)
	if err != nil {
		t.Fatalf("[db] open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func truncate(t *testing.T) {
	t.Helper()
	if _, err := openSQL(t).Exec(`TRUNCATE users, outbox`); err != nil {
		t.Fatalf("[db] truncate: %v", err)
	}
}
