// AngelaMos | 2026
// blacklist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistStore is the denylist of access tokens invalidated before
// their natural expiry. Insertion is idempotent: re-adding an already
// blacklisted token is success, not an error.
type BlacklistStore interface {
	Add(ctx context.Context, jti string, expiresAt time.Time, reason string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Blacklist keeps entries in Redis keyed by jti, with the TTL set to
// the token's own remaining lifetime. An entry therefore never
// outlives the token, and expiry cleanup is native to the store.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func (b *Blacklist) Add(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
	reason string,
) error {
	ttl := time.Until(expiresAt)

	// An already-expired token needs no entry.
	if ttl <= 0 {
		return nil
	}

	key := blacklistKey(jti)
	if err := b.client.Set(ctx, key, reason, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (b *Blacklist) IsBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

var _ BlacklistStore = (*Blacklist)(nil)
