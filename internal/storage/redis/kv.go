package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/designstudio/pkg/errors"
)

// DefaultPrefix namespaces storefront keys inside a shared Redis.
const DefaultPrefix = "storefront:"

// KV implements storage.KV using Redis.
type KV struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewKV creates a Redis-backed key-value store. A zero ttl stores keys
// without expiry.
func NewKV(client redis.UniversalClient, prefix string, ttl time.Duration) *KV {
	return &KV{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns the value stored under key.
func (r *KV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NotFound("key", key)
		}
		return "", apperrors.Storage("get", key, err)
	}
	return val, nil
}

// Set stores value under key with the configured TTL.
func (r *KV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return apperrors.Storage("set", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *KV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return apperrors.Storage("del", key, err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (r *KV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
