// Package seeder inserts optional fixture rows after migrations have run.
package seeder

import (
	"context"
	"fmt"

	"resume-match/internal/database"

	"github.com/sirupsen/logrus"
)

// Seeder writes its rows through q, which is a transaction owned by Runner.
type Seeder interface {
	Name() string
	Run(ctx context.Context, q database.Querier) error
}

type Runner struct {
	Seeders []Seeder
	Logger  logrus.FieldLogger
}

// Run executes each seeder in its own transaction and stops at the first failure.
func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return database.ErrNilDB
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		err := database.InTx(ctx, db, func(tx database.Tx) error {
			return s.Run(ctx, tx)
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		if r.Logger != nil {
			r.Logger.WithField("seeder", s.Name()).Info("seeder applied")
		}
	}
	return nil
}
