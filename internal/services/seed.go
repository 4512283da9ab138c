package services

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"reflections/internal/db"
	"reflections/internal/store"
)

type SeedUser struct {
	FirstName string
	Email     string
}

var (
	DefaultSeedUsers = []SeedUser{
		{FirstName: "John", Email: "john@test.com"},
		{FirstName: "Jane", Email: "jane@test.com"},
	}
	DefaultSeedTopics = []string{
		"learning", "surfing", "parenting", "arts", "productivity", "relationships", "health",
	}
)

// Seed makes sure every user exists and owns every topic. Running it again
// changes nothing.
func Seed(ctx context.Context, conn *sqlx.DB, users []SeedUser, topics []string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	userStore := store.NewUserStore(conn)
	registry := store.NewTopicRegistry(conn, nil)

	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
		for _, su := range users {
			u, err := userStore.Ensure(ctx, uow, su.FirstName, su.Email)
			if err != nil {
				return err
			}
			if _, err := registry.GetOrCreateMany(ctx, uow, u.ID, topics); err != nil {
				return err
			}
			log.Info("seeded user", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
		}
		return nil
	})
	return storageError(err)
}
