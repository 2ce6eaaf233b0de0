// Package cache implements the identity cache: a Redis-backed map from
// email address to a recently resolved user record. A hit saves the
// authoritative store lookup on every authenticated request; entries expire
// on a fixed TTL and are explicitly invalidated whenever the store mutates
// a user.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkravets/contactly/internal/auth"
)

// userKeyPrefix namespaces identity entries in Redis.
const userKeyPrefix = "user:"

// DefaultTTL is how long a cached user stays valid without invalidation.
const DefaultTTL = 9000 * time.Second

// ErrUnavailable wraps transient Redis failures. Callers fall back to the
// authoritative store instead of failing the request.
var ErrUnavailable = errors.New("identity cache unavailable")

// UserCache caches resolved users in Redis. Entries are JSON-encoded
// snapshots so a round trip returns a record equal in every field to what
// was stored. Safe for concurrent use; per-key atomicity is Redis's.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache over the given Redis client. A non-positive ttl
// falls back to DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached user for the email, or (nil, nil) when absent.
// Transport failures return ErrUnavailable.
func (c *UserCache) Get(ctx context.Context, email string) (*auth.User, error) {
	data, err := c.rdb.Get(ctx, userKeyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var snap auth.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt entry is as good as a miss; the caller re-reads the
		// store and overwrites it.
		return nil, nil
	}
	return snap.User(), nil
}

// Put stores the user under its email with the cache TTL.
func (c *UserCache) Put(ctx context.Context, email string, user *auth.User) error {
	data, err := json.Marshal(auth.NewSnapshot(user))
	if err != nil {
		return fmt.Errorf("marshaling user snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, userKeyPrefix+email, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Invalidate drops the cached entry for the email. Called after every store
// write that touches the user so a hit never serves superseded credentials.
func (c *UserCache) Invalidate(ctx context.Context, email string) error {
	if err := c.rdb.Del(ctx, userKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
