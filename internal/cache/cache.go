package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every key written by the service
const KeyPrefix = "gst-billing:"

// ErrMiss is returned by GetJSON when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache miss")

// Cache is a JSON cache over Redis. A Cache built from a nil client is valid
// and never hits, so callers do not need to check whether Redis is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

func New(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "cache"),
	}
}

// Enabled reports whether a Redis client is attached
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads key into dest
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}
	val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return ErrMiss
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return ErrMiss
	}
	return nil
}

// SetJSON stores value under key with the default TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	c.SetJSONWithTTL(ctx, key, value, c.ttl)
}

// SetJSONWithTTL stores value under key. Failures are logged only.
func (c *Cache) SetJSONWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = KeyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.logger.WithError(err).Warn("Cache delete failed")
	}
}

// DeletePattern removes every key matching a glob pattern using SCAN
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, KeyPrefix+pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).WithField("pattern", pattern).Warn("Cache scan failed")
		return
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}

// Ping checks connectivity; a disabled cache is always healthy
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
