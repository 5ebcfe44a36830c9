package cache

import (
	"context"
	"testing"
	"time"

	"resume-match/internal/domain/match"
	"resume-match/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnavailableRedisBypasses(t *testing.T) {
	r := &Redis{}
	ctx := context.Background()

	var out map[string]string
	ok, err := r.GetJSON(ctx, "k", &out)
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.NoError(t, r.SetJSON(ctx, "k", "v", 0))
	assert.NoError(t, r.Delete(ctx, "k"))
	exists, err := r.Exists(ctx, "k")
	assert.False(t, exists)
	assert.NoError(t, err)
	assert.Error(t, r.Ping(ctx))
	assert.NoError(t, r.Close())
}

func TestMatchCache_LatestRoundTrip(t *testing.T) {
	store := testutil.NewMemStore()
	c := NewMatchCache(store, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	_, ok, err := c.GetLatest(ctx, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	score := 61.25
	rec := match.Record{ID: uuid.New(), OwnerID: owner, MatchScore: &score, Suggestions: "golang"}
	require.NoError(t, c.SetLatest(ctx, rec))
	assert.Equal(t, time.Minute, store.TTLs[LatestMatchKey(owner)])

	got, ok, err := c.GetLatest(ctx, owner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 61.25, *got.MatchScore)

	var nilCache *MatchCache
	_, ok, err = nilCache.GetLatest(ctx, owner)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestMatchCache_KeepsNewerEntry(t *testing.T) {
	store := testutil.NewMemStore()
	c := NewMatchCache(store, time.Minute)
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	newer := match.Record{ID: uuid.New(), OwnerID: owner, CreatedAt: base.Add(10 * time.Second)}
	older := match.Record{ID: uuid.New(), OwnerID: owner, CreatedAt: base.Add(5 * time.Second)}

	require.NoError(t, c.SetLatest(ctx, newer))
	require.NoError(t, c.SetLatest(ctx, older))

	got, ok, err := c.GetLatest(ctx, owner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer.ID, got.ID)

	require.NoError(t, c.InvalidateLatest(ctx, owner))
	_, ok, err = c.GetLatest(ctx, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLatest(ctx, older))
	got, _, _ = c.GetLatest(ctx, owner)
	assert.Equal(t, older.ID, got.ID)
}

func TestRecordNewerThan_BreaksTiesByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	low := match.Record{ID: uuid.MustParse("00000000-0000-4000-8000-000000000001"), CreatedAt: at}
	high := match.Record{ID: uuid.MustParse("00000000-0000-4000-8000-000000000002"), CreatedAt: at}

	assert.True(t, high.NewerThan(low))
	assert.False(t, low.NewerThan(high))
	assert.False(t, low.NewerThan(low))
}

func TestTokenRevocations(t *testing.T) {
	store := testutil.NewMemStore()
	rv := NewTokenRevocations(store)
	ctx := context.Background()

	revoked, err := rv.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rv.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = rv.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, store.TTLs[RevokedTokenKey("abc")], 59*time.Minute)

	require.NoError(t, rv.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))
	revoked, _ = rv.IsRevoked(ctx, "expired")
	assert.False(t, revoked)
}
