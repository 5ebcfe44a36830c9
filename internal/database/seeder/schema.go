package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-match/internal/database"
)

// RequireColumns fails unless every column exists on the public table. The
// error names all missing columns so a stale schema is diagnosed in one run.
func RequireColumns(ctx context.Context, q database.Querier, table string, columns ...string) error {
	if q == nil {
		return database.ErrNilDB
	}
	if strings.TrimSpace(table) == "" {
		return errors.New("empty table")
	}

	rows, err := q.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`,
		table,
	)
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	have := map[string]bool{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		have[c] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range columns {
		if !have[col] {
			missing = append(missing, table+"."+col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema mismatch: missing column %s", strings.Join(missing, ", "))
	}
	return nil
}
