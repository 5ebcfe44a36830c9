package cache

import (
	"context"
	"strings"
	"time"
)

func RevokedTokenKey(jti string) string {
	return "auth:revoked:" + jti
}

// TokenRevocations remembers revoked token ids until the token would have
// expired anyway. Without a reachable store nothing is revoked.
type TokenRevocations struct {
	store Store
}

func NewTokenRevocations(store Store) *TokenRevocations {
	return &TokenRevocations{store: store}
}

func (t *TokenRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	jti = strings.TrimSpace(jti)
	if t == nil || t.store == nil || jti == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	_, err := t.store.SetIfNotExists(ctx, RevokedTokenKey(jti), "1", ttl)
	return err
}

func (t *TokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if t == nil || t.store == nil || jti == "" {
		return false, nil
	}
	return t.store.Exists(ctx, RevokedTokenKey(jti))
}
