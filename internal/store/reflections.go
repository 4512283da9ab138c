package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
	"reflections/internal/models"
)

const (
	sqlInsertReflection = `
		INSERT INTO reflections (title, text, timestamp, user_id)
		VALUES (?, ?, ?, ?)
		RETURNING id`

	sqlLinkTopic = `
		INSERT INTO reflection_topics (reflection_id, topic_id)
		VALUES (?, ?)`

	sqlGetReflection = `
		SELECT id, title, text, timestamp, user_id
		FROM   reflections
		WHERE  id = ?`

	sqlListReflections = `SELECT id, title, text, timestamp, user_id FROM reflections`

	sqlReflectionTopicNames = `
		SELECT t.name
		FROM   topics t
		JOIN   reflection_topics rt ON rt.topic_id = t.id
		WHERE  rt.reflection_id = ?
		ORDER  BY t.id`

	sqlTopicNamesForReflections = `
		SELECT rt.reflection_id, t.name
		FROM   reflection_topics rt
		JOIN   topics t ON t.id = rt.topic_id
		WHERE  rt.reflection_id IN (?)
		ORDER  BY rt.reflection_id, t.id`
)

type CreateReflectionParams struct {
	UserID     int64
	Title      string
	Text       string
	Timestamp  time.Time
	TopicNames []string
}

// ReflectionStore owns reflections and their topic association set.
type ReflectionStore struct {
	conn   *sqlx.DB
	topics *TopicRegistry
}

func NewReflectionStore(conn *sqlx.DB, topics *TopicRegistry) *ReflectionStore {
	return &ReflectionStore{conn: conn, topics: topics}
}

// Create resolves p.TopicNames through the topic registry, inserts the
// reflection and links it to each distinct topic, all within uow. Nothing
// is visible to other readers until uow commits.
func (s *ReflectionStore) Create(ctx context.Context, uow *db.UnitOfWork, p CreateReflectionParams) (int64, error) {
	topics, err := s.topics.GetOrCreateMany(ctx, uow, p.UserID, p.TopicNames)
	if err != nil {
		return 0, fmt.Errorf("resolve topics: %w", err)
	}

	var id int64
	err = uow.QueryRowxContext(ctx, uow.Rebind(sqlInsertReflection),
		p.Title, p.Text, p.Timestamp.UTC(), p.UserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert reflection: %w", db.MapError(err))
	}

	linked := make(map[int64]struct{}, len(topics))
	for _, t := range topics {
		if t.UserID != p.UserID {
			return 0, fmt.Errorf("%w: topic %d, user %d", ErrTopicOwnership, t.ID, p.UserID)
		}
		if _, ok := linked[t.ID]; ok {
			continue
		}
		if _, err := uow.ExecContext(ctx, uow.Rebind(sqlLinkTopic), id, t.ID); err != nil {
			return 0, fmt.Errorf("link topic %q: %w", t.Name, db.MapError(err))
		}
		linked[t.ID] = struct{}{}
	}
	return id, nil
}

// Get returns a reflection with its topic names. It returns db.ErrNotFound
// when id does not exist.
func (s *ReflectionStore) Get(ctx context.Context, id int64) (models.Reflection, error) {
	var r models.Reflection
	if err := s.conn.GetContext(ctx, &r, s.conn.Rebind(sqlGetReflection), id); err != nil {
		return models.Reflection{}, db.MapError(err)
	}

	r.Topics = []string{}
	if err := s.conn.SelectContext(ctx, &r.Topics, s.conn.Rebind(sqlReflectionTopicNames), id); err != nil {
		return models.Reflection{}, fmt.Errorf("load topics of reflection %d: %w", id, db.MapError(err))
	}
	return r, nil
}

// List returns all reflections, or only userID's when it is set, ordered by id.
func (s *ReflectionStore) List(ctx context.Context, userID *int64) ([]models.Reflection, error) {
	query, args := withUserFilter(sqlListReflections, "user_id", userID, "ORDER BY id")
	out := []models.Reflection{}
	if err := s.conn.SelectContext(ctx, &out, s.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reflections: %w", db.MapError(err))
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	index := make(map[int64]int, len(out))
	for i := range out {
		ids[i] = out[i].ID
		index[out[i].ID] = i
		out[i].Topics = []string{}
	}

	query, args, err := sqlx.In(sqlTopicNamesForReflections, ids)
	if err != nil {
		return nil, fmt.Errorf("build topic query: %w", err)
	}
	var links []struct {
		ReflectionID int64  `db:"reflection_id"`
		Name         string `db:"name"`
	}
	if err := s.conn.SelectContext(ctx, &links, s.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load reflection topics: %w", db.MapError(err))
	}
	for _, l := range links {
		i := index[l.ReflectionID]
		out[i].Topics = append(out[i].Topics, l.Name)
	}
	return out, nil
}
