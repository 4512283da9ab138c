// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
)

// New returns a migrated in-memory database that is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.Config{
		Driver: db.DriverSQLite,
		URL:    ":memory:",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.RunMigrations(context.Background(), conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// CreateUser inserts a user row directly and returns its id.
func CreateUser(t testing.TB, conn *sqlx.DB, firstName, email string) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRowxContext(context.Background(),
		conn.Rebind(`INSERT INTO users (first_name, email) VALUES (?, ?) RETURNING id`),
		firstName, email).Scan(&id)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

// Count runs a COUNT(*) style query and returns the result.
func Count(t testing.TB, conn *sqlx.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := conn.GetContext(context.Background(), &n, conn.Rebind(query), args...); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}
