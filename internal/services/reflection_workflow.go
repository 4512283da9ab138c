package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"reflections/internal/classifier"
	"reflections/internal/db"
	"reflections/internal/metrics"
	"reflections/internal/models"
	"reflections/internal/store"
)

type ClassifyInput struct {
	UserID    int64     `json:"user_id" validate:"required"`
	Title     string    `json:"title" validate:"notblank"`
	Text      string    `json:"text" validate:"notblank"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

type CreateInput struct {
	UserID    int64     `json:"user_id" validate:"required"`
	Title     string    `json:"title" validate:"notblank"`
	Text      string    `json:"text" validate:"notblank"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Topics    []string  `json:"topics" validate:"dive,notblank,max=64"`
}

type WorkflowDeps struct {
	Conn        *sqlx.DB
	Topics      *store.TopicRegistry
	Reflections *store.ReflectionStore
	Classifier  classifier.Classifier
	Encryption  *EncryptionService // nil disables encryption
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	MaxTopics   int
}

// ReflectionWorkflow exposes the two steps of recording a reflection:
// Classify suggests topics without touching storage, Persist writes the
// reflection and its topics in one transaction.
type ReflectionWorkflow struct {
	conn        *sqlx.DB
	topics      *store.TopicRegistry
	reflections *store.ReflectionStore
	classifier  classifier.Classifier
	encryption  *EncryptionService
	metrics     *metrics.Collector
	log         *zap.Logger
	maxTopics   int
}

func NewReflectionWorkflow(d WorkflowDeps) *ReflectionWorkflow {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &ReflectionWorkflow{
		conn:        d.Conn,
		topics:      d.Topics,
		reflections: d.Reflections,
		classifier:  d.Classifier,
		encryption:  d.Encryption,
		metrics:     d.Metrics,
		log:         log.Named("workflow"),
		maxTopics:   d.MaxTopics,
	}
}

// Classify returns sanitized topic suggestions for a draft reflection.
// Nothing is written and no transaction is held while the classifier runs.
func (w *ReflectionWorkflow) Classify(ctx context.Context, in ClassifyInput) ([]string, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	existing, err := w.topics.Names(ctx, in.UserID)
	if err != nil {
		return nil, storageError(err)
	}

	raw, err := w.classifier.Suggest(ctx, in.Title, in.Text, existing)
	if err != nil {
		w.log.Warn("classification failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, classifierError(ctx, err)
	}

	topics := classifier.Sanitize(raw, existing, w.maxTopics)
	w.log.Debug("classified reflection",
		zap.Int64("user_id", in.UserID),
		zap.Strings("suggested", raw),
		zap.Strings("topics", topics))
	return topics, nil
}

// Persist creates the reflection, creating any missing topics for the user.
// Topic names need not come from Classify. Calling it twice creates two
// reflections.
func (w *ReflectionWorkflow) Persist(ctx context.Context, in CreateInput) (int64, error) {
	if err := validateStruct(in); err != nil {
		return 0, err
	}

	text, err := w.encryption.EncryptText(in.Text)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.Transact(ctx, w.conn, func(uow *db.UnitOfWork) error {
		var err error
		id, err = w.reflections.Create(ctx, uow, store.CreateReflectionParams{
			UserID:     in.UserID,
			Title:      in.Title,
			Text:       text,
			Timestamp:  in.Timestamp,
			TopicNames: in.Topics,
		})
		return err
	})
	if err != nil {
		w.log.Warn("persist reflection failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		return 0, storageError(err)
	}

	w.metrics.ReflectionCreated()
	w.log.Info("reflection created",
		zap.Int64("reflection_id", id),
		zap.Int64("user_id", in.UserID),
		zap.Int("topics", len(in.Topics)))
	return id, nil
}

// Get returns ErrNotFound when id does not exist.
func (w *ReflectionWorkflow) Get(ctx context.Context, id int64) (models.Reflection, error) {
	r, err := w.reflections.Get(ctx, id)
	if err != nil {
		return models.Reflection{}, storageError(err)
	}
	if err := w.encryption.DecryptReflection(&r); err != nil {
		return models.Reflection{}, err
	}
	return r, nil
}

// List returns every reflection, or userID's when it is set.
func (w *ReflectionWorkflow) List(ctx context.Context, userID *int64) ([]models.Reflection, error) {
	list, err := w.reflections.List(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	for i := range list {
		if err := w.encryption.DecryptReflection(&list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}
