package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/modelhub/portal/internal/model"
)

// keyOverlayPrefix is the Redis key prefix for regenerated API key markers.
const keyOverlayPrefix = keyNamespace + "apikey:overlay:"

func overlayKey(userID, keyID string) string {
	return keyOverlayPrefix + userID + ":" + keyID
}

// GetOverlays loads the overlays of the given keys in one round trip.
// Keys without an overlay are absent from the result.
func (c *Cache) GetOverlays(ctx context.Context, userID string, keyIDs []string) (map[string]*model.KeyOverlay, error) {
	out := make(map[string]*model.KeyOverlay, len(keyIDs))
	if len(keyIDs) == 0 {
		return out, nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keyIDs))
	for i, id := range keyIDs {
		cmds[i] = pipe.HGetAll(ctx, overlayKey(userID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline failed: %w", err)
	}

	for i, cmd := range cmds {
		var cached model.CachedKeyOverlay
		if err := cmd.Scan(&cached); err != nil {
			continue
		}
		if o, ok := cached.ToOverlay(); ok {
			out[keyIDs[i]] = o
		}
	}
	return out, nil
}

// PutOverlay stores the overlay of a regenerated key.
func (c *Cache) PutOverlay(ctx context.Context, userID, keyID string, o *model.KeyOverlay) error {
	if err := c.client.HSet(ctx, overlayKey(userID, keyID), o.ToCached()).Err(); err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}
