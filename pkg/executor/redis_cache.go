package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache is an optional Redis-backed Cache, grounded on
// core.NewRedisRegistryWithNamespace's connection-tuning and
// namespacing pattern: values are JSON-encoded and stored under a
// namespaced key so multiple executors can share one Redis instance
// without key collisions.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// NewRedisCache connects to redisURL and namespaces every key under
// namespace (default "cogpipe:executor" when empty).
func NewRedisCache(redisURL, namespace string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second

	if namespace == "" {
		namespace = "cogpipe:executor"
	}

	return &RedisCache{client: redis.NewClient(opt), namespace: namespace}, nil
}

func (c *RedisCache) key(k string) string {
	return c.namespace + ":" + k
}

// Get returns the cached value for key, if present and unexpired.
func (c *RedisCache) Get(key string) (interface{}, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}
	return value, true
}

// Set stores value under key with the given TTL as Redis's own expiry.
func (c *RedisCache) Set(key string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(key), encoded, ttl)
}

// Cleanup is a no-op: Redis expires keys on its own via TTL.
func (c *RedisCache) Cleanup() int {
	return 0
}

// Close releases the underlying Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
