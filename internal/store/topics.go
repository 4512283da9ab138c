package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
	"reflections/internal/metrics"
	"reflections/internal/models"
)

const (
	sqlSelectTopic = `
		SELECT id, name, user_id
		FROM   topics
		WHERE  user_id = ? AND name = ?`

	// A concurrent writer that inserted the same pair makes this return no
	// row instead of failing; the caller then re-reads the winner's row.
	sqlInsertTopic = `
		INSERT INTO topics (name, user_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id`

	sqlListTopics = `SELECT id, name, user_id FROM topics`
)

// TopicRegistry owns per-user topic identity.
type TopicRegistry struct {
	conn    *sqlx.DB
	metrics *metrics.Collector
}

func NewTopicRegistry(conn *sqlx.DB, m *metrics.Collector) *TopicRegistry {
	return &TopicRegistry{conn: conn, metrics: m}
}

// GetOrCreate returns the topic named name for userID, creating it when it
// does not exist yet. Names match exactly (case and whitespace sensitive).
// It never commits: the new row becomes visible when uow commits.
func (r *TopicRegistry) GetOrCreate(ctx context.Context, uow *db.UnitOfWork, userID int64, name string) (models.Topic, error) {
	if name == "" {
		return models.Topic{}, fmt.Errorf("store: topic name must not be empty")
	}

	topic, err := r.find(ctx, uow, userID, name)
	if err == nil {
		return topic, nil
	}
	if !db.IsNotFound(err) {
		return models.Topic{}, fmt.Errorf("lookup topic %q: %w", name, err)
	}

	var id int64
	err = uow.QueryRowxContext(ctx, uow.Rebind(sqlInsertTopic), name, userID).Scan(&id)
	switch {
	case err == nil:
		r.metrics.TopicCreated()
		return models.Topic{ID: id, Name: name, UserID: userID}, nil
	case errors.Is(err, sql.ErrNoRows), db.IsDuplicateKey(db.MapError(err)):
		// Lost the race for (userID, name): reconcile with the stored row.
		topic, err = r.find(ctx, uow, userID, name)
		if db.IsNotFound(err) {
			return models.Topic{}, fmt.Errorf("reconcile topic %q: %w", name, db.ErrDuplicateKey)
		}
		if err != nil {
			return models.Topic{}, fmt.Errorf("reconcile topic %q: %w", name, err)
		}
		return topic, nil
	default:
		return models.Topic{}, fmt.Errorf("insert topic %q: %w", name, db.MapError(err))
	}
}

// GetOrCreateMany resolves names in order. The result has one entry per
// input name; repeated names are resolved once and share the same topic.
func (r *TopicRegistry) GetOrCreateMany(ctx context.Context, uow *db.UnitOfWork, userID int64, names []string) ([]models.Topic, error) {
	out := make([]models.Topic, 0, len(names))
	resolved := make(map[string]models.Topic, len(names))
	for _, name := range names {
		topic, ok := resolved[name]
		if !ok {
			var err error
			if topic, err = r.GetOrCreate(ctx, uow, userID, name); err != nil {
				return nil, err
			}
			resolved[name] = topic
		}
		out = append(out, topic)
	}
	return out, nil
}

// List returns every topic, or only userID's topics when it is set.
func (r *TopicRegistry) List(ctx context.Context, userID *int64) ([]models.Topic, error) {
	query, args := withUserFilter(sqlListTopics, "user_id", userID, "ORDER BY id")
	topics := []models.Topic{}
	if err := r.conn.SelectContext(ctx, &topics, r.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list topics: %w", db.MapError(err))
	}
	return topics, nil
}

// Names returns the topic vocabulary of a user.
func (r *TopicRegistry) Names(ctx context.Context, userID int64) ([]string, error) {
	topics, err := r.List(ctx, &userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names, nil
}

func (r *TopicRegistry) find(ctx context.Context, q db.Querier, userID int64, name string) (models.Topic, error) {
	var topic models.Topic
	if err := sqlx.GetContext(ctx, q, &topic, q.Rebind(sqlSelectTopic), userID, name); err != nil {
		return models.Topic{}, db.MapError(err)
	}
	return topic, nil
}
