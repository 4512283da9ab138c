package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
	"reflections/internal/models"
	"reflections/internal/store"
)

type TopicService struct {
	conn   *sqlx.DB
	topics *store.TopicRegistry
}

func NewTopicService(conn *sqlx.DB, topics *store.TopicRegistry) *TopicService {
	return &TopicService{conn: conn, topics: topics}
}

type createTopicsInput struct {
	UserID int64    `json:"user_id" validate:"required"`
	Names  []string `json:"names" validate:"required,dive,notblank,max=64"`
}

// CreateTopics gets or creates each name for userID in one transaction. The
// result holds one topic per input name, in input order.
func (s *TopicService) CreateTopics(ctx context.Context, userID int64, names []string) ([]models.Topic, error) {
	if err := validateStruct(createTopicsInput{UserID: userID, Names: names}); err != nil {
		return nil, err
	}

	var topics []models.Topic
	err := db.Transact(ctx, s.conn, func(uow *db.UnitOfWork) error {
		var err error
		topics, err = s.topics.GetOrCreateMany(ctx, uow, userID, names)
		return err
	})
	if err != nil {
		return nil, storageError(fmt.Errorf("create topics: %w", err))
	}
	return topics, nil
}

func (s *TopicService) GetTopics(ctx context.Context, userID *int64) ([]models.Topic, error) {
	topics, err := s.topics.List(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return topics, nil
}
