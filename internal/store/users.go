package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reflections/internal/db"
	"reflections/internal/models"
)

const (
	sqlListUsers = `SELECT id, first_name, email FROM users ORDER BY id`

	sqlInsertUser = `
		INSERT INTO users (first_name, email)
		VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING`

	sqlGetUserByEmail = `SELECT id, first_name, email FROM users WHERE email = ?`
)

// UserStore reads the externally managed users table.
type UserStore struct {
	conn *sqlx.DB
}

func NewUserStore(conn *sqlx.DB) *UserStore {
	return &UserStore{conn: conn}
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.conn.SelectContext(ctx, &users, sqlListUsers); err != nil {
		return nil, fmt.Errorf("list users: %w", db.MapError(err))
	}
	return users, nil
}

// Ensure returns the user with email, inserting it first if needed. An
// existing user keeps its stored first name.
func (s *UserStore) Ensure(ctx context.Context, uow *db.UnitOfWork, firstName, email string) (models.User, error) {
	if _, err := uow.ExecContext(ctx, uow.Rebind(sqlInsertUser), firstName, email); err != nil {
		return models.User{}, fmt.Errorf("insert user %s: %w", email, db.MapError(err))
	}
	var u models.User
	if err := sqlx.GetContext(ctx, uow, &u, uow.Rebind(sqlGetUserByEmail), email); err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", email, db.MapError(err))
	}
	return u, nil
}
