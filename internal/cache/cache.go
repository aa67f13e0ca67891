// Package cache stores computed results keyed by a content hash of their inputs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encodable values. Get reports false on a miss. Set may
// tag an entry, and Invalidate drops every entry carrying that tag.
type Cache interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, tags ...string) error
	Invalidate(ctx context.Context, tag string) (int, error)
	Close() error
}

// RedisCache is a Cache backed by Redis with a fixed TTL per entry.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheWithClient(client, ttl), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "suppscore:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	if key == "" {
		return false, nil
	}
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Set writes the entry and adds its key to each tag's index set. Index sets
// share the entry TTL, so a forgotten tag expires with its entries.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	if key == "" {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.prefix+key, data, c.ttl)
		for _, tag := range tags {
			if tag == "" {
				continue
			}
			pipe.SAdd(ctx, c.tagKey(tag), key)
			if c.ttl > 0 {
				pipe.Expire(ctx, c.tagKey(tag), c.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}
	return nil
}

// Invalidate deletes every entry tagged with tag and reports how many were
// still present.
func (c *RedisCache) Invalidate(ctx context.Context, tag string) (int, error) {
	if tag == "" {
		return 0, nil
	}
	keys, err := c.client.SMembers(ctx, c.tagKey(tag)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read tag %s from Redis: %w", tag, err)
	}
	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, c.prefix+k)
	}
	del = append(del, c.tagKey(tag))
	n, err := c.client.Del(ctx, del...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
	}
	// The index set itself is not an entry.
	if len(keys) > 0 {
		n--
	}
	return int(n), nil
}

func (c *RedisCache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error)    { return false, nil }
func (Nop) Set(context.Context, string, interface{}, ...string) error { return nil }
func (Nop) Invalidate(context.Context, string) (int, error)           { return 0, nil }
func (Nop) Close() error                                              { return nil }
