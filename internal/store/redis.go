package store

import (
	"context"
	"fmt"
	"time"

	"thirdeye/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis. Namespaces become
// key prefixes; values are stored without expiry.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis-backed repository
func NewRedisRepository(redisURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRepository{client: client}, nil
}

func storeKey(namespace, key string) string {
	return namespace + ":" + key
}

// Get retrieves the value stored under (namespace, key)
func (r *RedisRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := r.client.Get(ctx, storeKey(namespace, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", models.ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return value, nil
}

// Set stores a value under (namespace, key) without expiry
func (r *RedisRepository) Set(ctx context.Context, namespace, key, value string) error {
	if err := r.client.Set(ctx, storeKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes (namespace, key) if present
func (r *RedisRepository) Delete(ctx context.Context, namespace, key string) error {
	if err := r.client.Del(ctx, storeKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteNamespace removes every key under the namespace
func (r *RedisRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	var cursor uint64
	pattern := namespace + ":*"

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
