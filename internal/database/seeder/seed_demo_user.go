package seeder

import (
	"context"
	"errors"
	"strings"

	"resume-match/internal/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DemoUserSeeder creates a login for local testing. Existing usernames are left alone.
type DemoUserSeeder struct {
	Username string
	Email    string
	Password string
}

func (DemoUserSeeder) Name() string { return "demo_user" }

func (s DemoUserSeeder) Run(ctx context.Context, q database.Querier) error {
	username := strings.ToLower(strings.TrimSpace(s.Username))
	if username == "" || s.Password == "" {
		return errors.New("demo user needs a username and password")
	}

	if err := RequireColumns(ctx, q, "users", "id", "username", "email", "password_hash", "created_at", "updated_at"); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = q.Exec(
		ctx,
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4) ON CONFLICT (lower(username)) DO NOTHING`,
		uuid.New(),
		username,
		strings.TrimSpace(s.Email),
		string(hash),
	)
	return err
}
