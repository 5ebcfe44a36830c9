package repository

import (
	"context"
	"fmt"
	"time"

	"resume-match/internal/database"
	"resume-match/internal/domain/match"

	"github.com/google/uuid"
)

const matchRecordColumns = `id, owner_id, resume_ref, job_description, match_score, suggestions, created_at`

// PostgresMatchRecordRepository stores match records. It has no update path;
// the table additionally rejects UPDATE with a trigger.
type PostgresMatchRecordRepository struct {
	db database.DB
}

func NewPostgresMatchRecordRepository(db database.DB) *PostgresMatchRecordRepository {
	return &PostgresMatchRecordRepository{db: db}
}

func (r *PostgresMatchRecordRepository) Create(ctx context.Context, rec match.Record) error {
	if rec.ID == uuid.Nil || rec.OwnerID == uuid.Nil {
		return fmt.Errorf("create match record: missing id or owner")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO match_records (`+matchRecordColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID,
		rec.OwnerID,
		rec.ResumeRef,
		rec.JobDescription,
		rec.MatchScore,
		rec.Suggestions,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresMatchRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (match.Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+matchRecordColumns+` FROM match_records WHERE id = $1`, id)
	return scanMatchRecord(row)
}

func (r *PostgresMatchRecordRepository) LatestByOwner(ctx context.Context, ownerID uuid.UUID) (match.Record, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+matchRecordColumns+`
		 FROM match_records
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		ownerID,
	)
	return scanMatchRecord(row)
}

func (r *PostgresMatchRecordRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]match.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+matchRecordColumns+`
		 FROM match_records
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]match.Record, 0, limit)
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanMatchRecord(row database.Row) (match.Record, error) {
	var rec match.Record
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.ResumeRef,
		&rec.JobDescription,
		&rec.MatchScore,
		&rec.Suggestions,
		&rec.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return match.Record{}, match.ErrNotFound
		}
		return match.Record{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
