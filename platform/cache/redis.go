// Package cache provides a small Redis-backed key/value cache.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores string values under a namespace with a fixed TTL.
type Cache struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewClient opens a go-redis client from a redis:// or rediss:// URL.
func NewClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// New wraps client. A non-positive ttl disables expiry.
func New(client redis.UniversalClient, namespace string, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{client: client, namespace: strings.TrimSuffix(namespace, ":"), ttl: ttl}
}

// Key hashes the parts into a namespaced key so long prompts stay bounded.
func (c *Cache) Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return c.namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// Set stores value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
