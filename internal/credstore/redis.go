package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces credential keys in a shared Redis database.
const DefaultRedisPrefix = "rentportal:session:"

// Redis is a Store backed by a Redis server. A non-zero TTL bounds how long
// credentials survive without being rewritten.
type Redis struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

// NewRedis wraps an existing Redis client.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{Client: client, Prefix: prefix, TTL: ttl}
}

// OpenRedis connects using a redis:// or rediss:// URL.
func OpenRedis(rawURL, prefix string, ttl time.Duration) (*Redis, *redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	return NewRedis(client, prefix, ttl), client, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, r.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StoreError{Op: "get", Key: key, Cause: err}
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.Client.Set(ctx, r.Prefix+key, value, r.TTL).Err(); err != nil {
		return &StoreError{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.Prefix+key).Err(); err != nil {
		return &StoreError{Op: "remove", Key: key, Cause: err}
	}
	return nil
}
