package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    first_name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS topics (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS reflections (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    text TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS reflection_topics (
    reflection_id INTEGER NOT NULL REFERENCES reflections(id) ON DELETE CASCADE,
    topic_id INTEGER NOT NULL REFERENCES topics(id),
    PRIMARY KEY (reflection_id, topic_id)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS topics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS reflections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    text TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS reflection_topics (
    reflection_id INTEGER NOT NULL REFERENCES reflections(id) ON DELETE CASCADE,
    topic_id INTEGER NOT NULL REFERENCES topics(id),
    PRIMARY KEY (reflection_id, topic_id)
);
`

// Indexes are shared by both drivers. The unique index on topics also
// upgrades databases created before per-user uniqueness was enforced.
const indexes = `
CREATE UNIQUE INDEX IF NOT EXISTS topics_user_id_name_key ON topics (user_id, name);
CREATE INDEX IF NOT EXISTS reflections_user_id_idx ON reflections (user_id);
CREATE INDEX IF NOT EXISTS reflection_topics_topic_id_idx ON reflection_topics (topic_id);
`

func RunMigrations(ctx context.Context, conn *sqlx.DB) error {
	schema := postgresSchema
	if conn.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("db: create tables: %w", MapError(err))
	}
	if _, err := conn.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("db: create indexes: %w", MapError(err))
	}
	return nil
}
