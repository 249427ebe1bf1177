// Package cache provides an optional fast lookup layer in front of the push
// history store. The authoritative record stays in sqlite; the cache only
// short-circuits suppression checks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the duplicate-check accelerator consumed by the pipeline.
type Cache interface {
	IsPushed(ctx context.Context, hash string) (bool, error)
	MarkPushed(ctx context.Context, hash string, ttl time.Duration) error
	Close() error
}

// RedisCache keys pushed url hashes with a TTL equal to the suppression
// window, so entries expire exactly when the store stops considering them.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to redis at the given URL and verifies the
// connection before returning.
func NewRedisCache(url, prefix string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if prefix == "" {
		prefix = "brief:"
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) IsPushed(ctx context.Context, hash string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.prefix+hash).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisCache) MarkPushed(ctx context.Context, hash string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+hash, "1", ttl).Err()
}
