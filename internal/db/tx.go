package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *UnitOfWork, so read helpers
// work inside and outside a transaction.
type Querier interface {
	sqlx.ExtContext
}

// UnitOfWork is one transaction shared by every store taking part in a
// single workflow invocation. It is created and released by Transact only.
type UnitOfWork struct {
	*sqlx.Tx
}

var (
	_ Querier = (*sqlx.DB)(nil)
	_ Querier = (*UnitOfWork)(nil)
)

// Transact begins a transaction, runs fn and commits when fn returns nil.
// The transaction is rolled back when fn returns an error or panics, so it
// is released on every exit path.
//
//	err := db.Transact(ctx, conn, func(uow *db.UnitOfWork) error {
//	    _, err := reflections.Create(ctx, uow, params)
//	    return err
//	})
func Transact(ctx context.Context, conn *sqlx.DB, fn func(*UnitOfWork) error) (err error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return MapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("db: rollback failed (%v) after original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(&UnitOfWork{Tx: tx}); err != nil {
		return MapError(err)
	}
	if err = tx.Commit(); err != nil {
		return MapError(err)
	}
	return nil
}
