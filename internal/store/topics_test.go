package store_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflections/internal/db"
	"reflections/internal/db/dbtest"
	"reflections/internal/metrics"
	"reflections/internal/models"
	"reflections/internal/store"
)

func TestGetOrCreate_Idempotent(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	m := metrics.NewCollector("test")
	registry := store.NewTopicRegistry(conn, m)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	var first, second models.Topic
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		first, err = registry.GetOrCreate(ctx, uow, userID, "health")
		return err
	}))
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		second, err = registry.GetOrCreate(ctx, uow, userID, "health")
		return err
	}))

	assert.Equal(t, first, second)
	assert.Equal(t, 1, dbtest.Count(t, conn,
		`SELECT COUNT(*) FROM topics WHERE user_id = ? AND name = ?`, userID, "health"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TopicsCreated))
}

func TestGetOrCreate_ExactMatchOnly(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		for _, name := range []string{"health", "Health", " health"} {
			if _, err := registry.GetOrCreate(ctx, uow, userID, name); err != nil {
				return err
			}
		}
		return nil
	}))

	assert.Equal(t, 3, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics WHERE user_id = ?`, userID))
}

func TestGetOrCreate_ScopedPerUser(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)
	john := dbtest.CreateUser(t, conn, "John", "john@test.com")
	jane := dbtest.CreateUser(t, conn, "Jane", "jane@test.com")

	var a, b models.Topic
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		if a, err = registry.GetOrCreate(ctx, uow, john, "surfing"); err != nil {
			return err
		}
		b, err = registry.GetOrCreate(ctx, uow, jane, "surfing")
		return err
	}))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, john, a.UserID)
	assert.Equal(t, jane, b.UserID)
}

func TestGetOrCreate_EmptyName(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		_, err := registry.GetOrCreate(ctx, uow, userID, "")
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics`))
}

func TestGetOrCreate_UnknownUser(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)

	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		_, err := registry.GetOrCreate(ctx, uow, 4242, "health")
		return err
	})
	assert.True(t, db.IsForeignKeyViolation(err), "got %v", err)
}

func TestGetOrCreate_ConflictReadsStoredRow(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	m := metrics.NewCollector("test")
	registry := store.NewTopicRegistry(conn, m)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	// Another writer slips the same pair in between the lookup and the insert.
	_, err := conn.Exec(`
		CREATE TRIGGER racer BEFORE INSERT ON topics
		WHEN NOT EXISTS (SELECT 1 FROM topics WHERE user_id = NEW.user_id AND name = NEW.name)
		BEGIN
			INSERT INTO topics (name, user_id) VALUES (NEW.name, NEW.user_id);
		END`)
	require.NoError(t, err)

	var got models.Topic
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		got, err = registry.GetOrCreate(ctx, uow, userID, "health")
		return err
	}))

	var storedID int64
	require.NoError(t, conn.Get(&storedID, `SELECT id FROM topics WHERE user_id = ? AND name = ?`, userID, "health"))
	assert.Equal(t, storedID, got.ID)
	assert.Equal(t, models.Topic{ID: storedID, Name: "health", UserID: userID}, got)
	assert.Equal(t, 1, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics`))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.TopicsCreated))
}

func TestGetOrCreate_ConflictWithoutStoredRow(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	// The insert is dropped without error and the re-read finds nothing.
	_, err := conn.Exec(`
		CREATE TRIGGER swallow BEFORE INSERT ON topics
		BEGIN
			SELECT RAISE(IGNORE);
		END`)
	require.NoError(t, err)

	err = db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		_, err := registry.GetOrCreate(ctx, uow, userID, "health")
		return err
	})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKey(err), "got %v", err)
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics`))
}

func TestGetOrCreateMany_OrderAndDedup(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	m := metrics.NewCollector("test")
	registry := store.NewTopicRegistry(conn, m)
	userID := dbtest.CreateUser(t, conn, "John", "john@test.com")

	var existing models.Topic
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		existing, err = registry.GetOrCreate(ctx, uow, userID, "learning")
		return err
	}))

	var topics []models.Topic
	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		var err error
		topics, err = registry.GetOrCreateMany(ctx, uow, userID,
			[]string{"arts", "learning", "arts", "health"})
		return err
	}))

	require.Len(t, topics, 4)
	assert.Equal(t, "arts", topics[0].Name)
	assert.Equal(t, existing, topics[1])
	assert.Equal(t, topics[0], topics[2])
	assert.Equal(t, "health", topics[3].Name)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.TopicsCreated))
	assert.Equal(t, 3, dbtest.Count(t, conn, `SELECT COUNT(*) FROM topics WHERE user_id = ?`, userID))
}

func TestTopicRegistry_List(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	registry := store.NewTopicRegistry(conn, nil)
	john := dbtest.CreateUser(t, conn, "John", "john@test.com")
	jane := dbtest.CreateUser(t, conn, "Jane", "jane@test.com")

	empty, err := registry.List(ctx, &john)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		if _, err := registry.GetOrCreateMany(ctx, uow, john, []string{"learning", "health"}); err != nil {
			return err
		}
		_, err := registry.GetOrCreate(ctx, uow, jane, "arts")
		return err
	}))

	names, err := registry.Names(ctx, john)
	require.NoError(t, err)
	assert.Equal(t, []string{"learning", "health"}, names)

	all, err := registry.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	var zero int64
	none, err := registry.List(ctx, &zero)
	require.NoError(t, err)
	assert.Empty(t, none)
}
