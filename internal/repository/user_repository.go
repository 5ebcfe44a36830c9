package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-match/internal/database"
	"resume-match/internal/domain/user"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u user.User) error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("create user: missing id")
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Username)),
		strings.TrimSpace(u.Email),
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username),
	)
	return scanUser(row)
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username),
	).Scan(&exists)
	return exists, err
}

func scanUser(row database.Row) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
