package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflections/internal/db"
	"reflections/internal/db/dbtest"
)

func TestOpen_Validation(t *testing.T) {
	_, err := db.Open(context.Background(), db.Config{Driver: db.DriverSQLite})
	assert.Error(t, err, "empty url")

	_, err = db.Open(context.Background(), db.Config{Driver: "mysql", URL: "x"})
	assert.Error(t, err, "unsupported driver")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	conn := dbtest.New(t)
	require.NoError(t, db.RunMigrations(context.Background(), conn))
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics`))
}

func TestMapError_DuplicateTopic(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	_, err := conn.ExecContext(ctx, `INSERT INTO topics (name, user_id) VALUES (?, ?)`, "health", userID)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO topics (name, user_id) VALUES (?, ?)`, "health", userID)
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKey(db.MapError(err)), "got %v", err)
}

func TestMapError_ForeignKey(t *testing.T) {
	conn := dbtest.New(t)

	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO topics (name, user_id) VALUES (?, ?)`, "health", 4242)
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(db.MapError(err)), "got %v", err)
}

func TestMapError_NoRows(t *testing.T) {
	conn := dbtest.New(t)

	var id int64
	err := conn.GetContext(context.Background(), &id, `SELECT id FROM reflections WHERE id = ?`, 1)
	mapped := db.MapError(err)
	assert.True(t, db.IsNotFound(mapped))
	assert.Same(t, mapped, db.MapError(mapped), "already mapped errors are not wrapped twice")
}

func TestTransact_Commit(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()

	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		_, err := uow.ExecContext(ctx, `INSERT INTO users (first_name, email) VALUES (?, ?)`, "Jane", "jane@test.com")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, conn, `SELECT COUNT(*) FROM users`))
}

func TestTransact_RollbackOnError(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		if _, err := uow.ExecContext(ctx, `INSERT INTO users (first_name, email) VALUES (?, ?)`, "Jane", "jane@test.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM users`))
}

func TestTransact_RollbackOnPanic(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
			_, _ = uow.ExecContext(ctx, `INSERT INTO users (first_name, email) VALUES (?, ?)`, "Jane", "jane@test.com")
			panic("kaboom")
		})
	})

	// The single SQLite connection must have been released for this to return.
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM users`))
}
