package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-dashboard-service/internal/domain"
)

// Redis-backed store of last-known-good route snapshots keyed by
// pickup-point id. Warms the reconciler after a restart so the map does
// not flash empty routes while the first pass runs; entries carry a TTL so
// a long-dead dashboard never resurrects ancient routes.
type RedisRouteCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRouteCache(rdb *redis.Client, deviceID string, ttl time.Duration) (*RedisRouteCache, error) {
	if rdb == nil {
		return nil, errors.New("route cache: redis client is nil")
	}
	if strings.TrimSpace(deviceID) == "" {
		return nil, errors.New("route cache: deviceID must be non-empty")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RedisRouteCache{
		rdb:    rdb,
		prefix: "routes:" + deviceID + ":",
		ttl:    ttl,
	}, nil
}

func (c *RedisRouteCache) key(pointID string) string { return c.prefix + pointID }

// Put stores one snapshot under its pickup-point id.
func (c *RedisRouteCache) Put(ctx context.Context, pointID string, snap domain.RouteSnapshot) error {
	if strings.TrimSpace(pointID) == "" {
		return errors.New("route cache put: pointID must be non-empty")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("route cache put: marshal snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key(pointID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache put: set %q: %w", pointID, err)
	}
	return nil
}

// Delete removes one snapshot. Missing keys are not an error.
func (c *RedisRouteCache) Delete(ctx context.Context, pointID string) error {
	if err := c.rdb.Del(ctx, c.key(pointID)).Err(); err != nil {
		return fmt.Errorf("route cache delete: del %q: %w", pointID, err)
	}
	return nil
}

// GetAll returns every cached snapshot for this device. Entries that fail
// to decode are skipped; a warm start beats a failed one.
func (c *RedisRouteCache) GetAll(ctx context.Context) (map[string]domain.RouteSnapshot, error) {
	out := make(map[string]domain.RouteSnapshot)

	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("route cache get all: scan: %w", err)
	}
	if len(keys) == 0 {
		return out, nil
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("route cache get all: mget: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var snap domain.RouteSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		out[strings.TrimPrefix(keys[i], c.prefix)] = snap
	}

	return out, nil
}
