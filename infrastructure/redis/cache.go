package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a typed JSON cache over one key prefix. Every projection cache
// in the system (descriptors, attendance markers, sessions) is an instance
// of it.
type Cache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache[T any](client *RedisClient, prefix string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		client: client.Raw(),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache[T]) key(id string) string {
	return c.prefix + ":" + id
}

// Get returns nil without error on a miss.
func (c *Cache[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

// Set stores the value under the cache's default TTL.
func (c *Cache[T]) Set(ctx context.Context, id string, value *T) error {
	return c.SetWithTTL(ctx, id, value, c.ttl)
}

func (c *Cache[T]) SetWithTTL(ctx context.Context, id string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(id), data, ttl).Err()
}

func (c *Cache[T]) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

// GetAll scans the prefix and returns every live entry keyed by id.
// Entries that expire between scan and get are skipped.
func (c *Cache[T]) GetAll(ctx context.Context) (map[string]*T, error) {
	out := make(map[string]*T)

	iter := c.client.Scan(ctx, 0, c.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}

		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			// A corrupt entry is dropped rather than poisoning the scan
			c.client.Del(ctx, key)
			continue
		}
		out[strings.TrimPrefix(key, c.prefix+":")] = &value
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteAll removes every entry under the prefix.
func (c *Cache[T]) DeleteAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
