package cache

import (
	"context"
	"time"

	"resume-match/internal/domain/match"

	"github.com/google/uuid"
)

// Store is the key/value surface the typed caches are built on.
type Store interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

func LatestMatchKey(ownerID uuid.UUID) string {
	return "matches:latest:" + ownerID.String()
}

// MatchCache keeps each owner's most recent record.
type MatchCache struct {
	store Store
	ttl   time.Duration
}

func NewMatchCache(store Store, ttl time.Duration) *MatchCache {
	return &MatchCache{store: store, ttl: ttl}
}

func (c *MatchCache) GetLatest(ctx context.Context, ownerID uuid.UUID) (match.Record, bool, error) {
	var rec match.Record
	if c == nil || c.store == nil {
		return rec, false, nil
	}
	ok, err := c.store.GetJSON(ctx, LatestMatchKey(ownerID), &rec)
	if err != nil || !ok {
		return match.Record{}, false, err
	}
	return rec, true, nil
}

// SetLatest stores rec unless the cached record is newer, so a slow reader
// cannot replace a fresher entry with the row it loaded earlier.
func (c *MatchCache) SetLatest(ctx context.Context, rec match.Record) error {
	if c == nil || c.store == nil {
		return nil
	}
	current, ok, err := c.GetLatest(ctx, rec.OwnerID)
	if err == nil && ok && current.NewerThan(rec) {
		return nil
	}
	return c.store.SetJSON(ctx, LatestMatchKey(rec.OwnerID), rec, c.ttl)
}

// InvalidateLatest drops the owner's entry. Writers call it after inserting a
// record and leave the refill to the next read, which orders by the database.
func (c *MatchCache) InvalidateLatest(ctx context.Context, ownerID uuid.UUID) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, LatestMatchKey(ownerID))
}
