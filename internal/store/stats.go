package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
	"reflections/internal/models"
)

const (
	sqlCountReflections = `SELECT COUNT(*) FROM reflections`
	sqlCountTopics      = `SELECT COUNT(*) FROM topics`

	sqlTopicUsage = `
		SELECT t.id AS topic_id, t.name, COUNT(rt.reflection_id) AS reflections
		FROM   topics t
		LEFT   JOIN reflection_topics rt ON rt.topic_id = t.id`
)

// StatsStore aggregates counts over reflections and topics.
type StatsStore struct {
	conn *sqlx.DB
}

func NewStatsStore(conn *sqlx.DB) *StatsStore {
	return &StatsStore{conn: conn}
}

// Overview counts reflections and topics and reports how often each topic is
// used, most used first. A nil userID covers all users.
func (s *StatsStore) Overview(ctx context.Context, userID *int64) (models.Overview, error) {
	var out models.Overview

	query, args := withUserFilter(sqlCountReflections, "user_id", userID, "")
	if err := s.conn.GetContext(ctx, &out.TotalReflections, s.conn.Rebind(query), args...); err != nil {
		return out, fmt.Errorf("count reflections: %w", db.MapError(err))
	}

	query, args = withUserFilter(sqlCountTopics, "user_id", userID, "")
	if err := s.conn.GetContext(ctx, &out.TotalTopics, s.conn.Rebind(query), args...); err != nil {
		return out, fmt.Errorf("count topics: %w", db.MapError(err))
	}

	query, args = withUserFilter(sqlTopicUsage, "t.user_id", userID,
		"GROUP BY t.id, t.name ORDER BY reflections DESC, t.name, t.id")
	out.TopicUsage = []models.TopicUsage{}
	if err := s.conn.SelectContext(ctx, &out.TopicUsage, s.conn.Rebind(query), args...); err != nil {
		return out, fmt.Errorf("topic usage: %w", db.MapError(err))
	}
	return out, nil
}
