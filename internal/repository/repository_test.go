package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resume-match/internal/domain/match"
	"resume-match/internal/domain/user"
	"resume-match/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRecordRepository_CreateInsertsOnly(t *testing.T) {
	db := &testutil.FakeDB{}
	repo := NewPostgresMatchRecordRepository(db)

	score := 55.5
	rec := match.Record{ID: uuid.New(), OwnerID: uuid.New(), ResumeRef: "resumes/a.pdf", JobDescription: "Go", MatchScore: &score, Suggestions: "golang"}
	require.NoError(t, repo.Create(context.Background(), rec))

	require.Len(t, db.Execs, 1)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(db.Execs[0].Query), "INSERT INTO match_records"))
	assert.NotContains(t, db.Execs[0].Query, "ON CONFLICT")
	assert.Equal(t, rec.ID, db.Execs[0].Args[0])
	assert.Equal(t, &score, db.Execs[0].Args[4])
	createdAt, ok := db.Execs[0].Args[6].(time.Time)
	require.True(t, ok)
	assert.False(t, createdAt.IsZero())

	assert.Error(t, repo.Create(context.Background(), match.Record{}))
}

func TestMatchRecordRepository_LatestByOwner(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	score := 12.34

	db := &testutil.FakeDB{QueryRowFunc: func(query string, args ...any) ([]any, error) {
		assert.Contains(t, query, "ORDER BY created_at DESC")
		assert.Equal(t, owner, args[0])
		return []any{id, owner, "resumes/x.pdf", "jd", &score, "python", created}, nil
	}}

	rec, err := NewPostgresMatchRecordRepository(db).LatestByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	require.NotNil(t, rec.MatchScore)
	assert.Equal(t, 12.34, *rec.MatchScore)
	assert.Equal(t, created, rec.CreatedAt)
}

func TestMatchRecordRepository_NotFound(t *testing.T) {
	db := &testutil.FakeDB{QueryRowFunc: func(string, ...any) ([]any, error) {
		return nil, pgx.ErrNoRows
	}}
	_, err := NewPostgresMatchRecordRepository(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestMatchRecordRepository_ListByOwnerClampsPaging(t *testing.T) {
	owner := uuid.New()
	var gotArgs []any
	db := &testutil.FakeDB{QueryFunc: func(_ string, args ...any) ([][]any, error) {
		gotArgs = args
		return [][]any{
			{uuid.New(), owner, "resumes/b.pdf", "jd", nil, "", time.Now()},
			{uuid.New(), owner, "resumes/a.pdf", "jd", nil, "", time.Now()},
		}, nil
	}}

	out, err := NewPostgresMatchRecordRepository(db).ListByOwner(context.Background(), owner, 500, -3)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []any{owner, 100, 0}, gotArgs)

	_, err = NewPostgresMatchRecordRepository(db).ListByOwner(context.Background(), owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, gotArgs[1])
}

func TestUserRepository_CreateMapsUniqueViolation(t *testing.T) {
	db := &testutil.FakeDB{ExecFunc: func(string, ...any) (int64, error) {
		return 0, &pgconn.PgError{Code: pgUniqueViolation}
	}}
	err := NewPostgresUserRepository(db).CreateUser(context.Background(), user.User{ID: uuid.New(), Username: "Alice"})
	assert.ErrorIs(t, err, user.ErrDuplicateUsername)
}

func TestUserRepository_CreateNormalisesUsername(t *testing.T) {
	db := &testutil.FakeDB{}
	require.NoError(t, NewPostgresUserRepository(db).CreateUser(context.Background(), user.User{ID: uuid.New(), Username: "  Alice "}))
	assert.Equal(t, "alice", db.Execs[0].Args[1])
}

func TestUserRepository_GetUserByUsername(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	db := &testutil.FakeDB{QueryRowFunc: func(query string, args ...any) ([]any, error) {
		if args[0] != "alice" {
			return nil, pgx.ErrNoRows
		}
		return []any{id, "alice", "a@example.com", "hash", now, now}, nil
	}}
	repo := NewPostgresUserRepository(db)

	u, err := repo.GetUserByUsername(context.Background(), " alice ")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = repo.GetUserByUsername(context.Background(), "bob")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepository_ExistsPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	db := &testutil.FakeDB{QueryRowFunc: func(string, ...any) ([]any, error) { return nil, boom }}
	_, err := NewPostgresUserRepository(db).ExistsByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)

	db.QueryRowFunc = func(string, ...any) ([]any, error) { return []any{true}, nil }
	ok, err := NewPostgresUserRepository(db).ExistsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
