// Package database defines the narrow SQL surface the repositories and
// seeders depend on, so they can run against a pool or a transaction.
package database

import (
	"context"
	"errors"
	"fmt"
)

var ErrNilDB = errors.New("database: nil connection")

// Querier is satisfied by both DB and Tx.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type DB interface {
	Querier

	Ping(ctx context.Context) error
	Close() error
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Querier

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}

// InTx runs fn in a transaction. The transaction is committed when fn returns
// nil and rolled back otherwise, including when fn panics.
func InTx(ctx context.Context, db DB, fn func(tx Tx) error) (err error) {
	if db == nil {
		return ErrNilDB
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
