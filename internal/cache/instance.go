package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modelhub/portal/internal/instance"
)

const (
	instanceStatePrefix = keyNamespace + "instance:state:"
	// instanceStateTTL lets abandoned demo state age out.
	instanceStateTTL = 30 * 24 * time.Hour
)

// GetState returns the stored state of an instance, if any.
func (c *Cache) GetState(ctx context.Context, userID, instanceID string) (*instance.State, bool, error) {
	data, err := c.client.Get(ctx, instanceStatePrefix+userID+":"+instanceID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var s instance.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, nil //nolint:nilerr
	}
	return &s, true, nil
}

// PutState stores the state of an instance.
func (c *Cache) PutState(ctx context.Context, userID, instanceID string, s instance.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal instance state: %w", err)
	}
	return c.client.Set(ctx, instanceStatePrefix+userID+":"+instanceID, data, instanceStateTTL).Err()
}
