package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelhub/portal/internal/model"
)

const (
	// profileCachePrefix is the Redis key prefix for session profiles.
	profileCachePrefix = keyNamespace + "session:profile:"
	// ProfileCacheTTL bounds how stale a cached profile can get.
	ProfileCacheTTL = 5 * time.Minute
)

// GetProfile returns the cached profile for a session token.
// Returns nil if not found (cache miss).
func (c *Cache) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	data, err := c.client.Get(ctx, profileCachePrefix+hashToken(token)).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}
	return &p, nil
}

// SetProfile caches the profile for a session token.
func (c *Cache) SetProfile(ctx context.Context, token string, p *model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return c.client.Set(ctx, profileCachePrefix+hashToken(token), data, ProfileCacheTTL).Err()
}

// DeleteProfile drops the cached profile, e.g. after the user edits it.
func (c *Cache) DeleteProfile(ctx context.Context, token string) error {
	return c.client.Del(ctx, profileCachePrefix+hashToken(token)).Err()
}
