package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	AuthCachePrefix = "auth:"
	// AuthCacheTTL bounds how long a session is trusted without a profile lookup.
	AuthCacheTTL = time.Hour
)

// AuthCache maps a user to the hash of their active token.
type AuthCache interface {
	Set(ctx context.Context, userID, tokenHash string) error
	// Get returns "" without error on a miss.
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// RedisAuthCache stores token hashes under AuthCachePrefix with AuthCacheTTL.
type RedisAuthCache struct {
	client *redis.Client
}

func NewRedisAuthCache(client *redis.Client) *RedisAuthCache {
	return &RedisAuthCache{client: client}
}

func (c *RedisAuthCache) Set(ctx context.Context, userID, tokenHash string) error {
	return c.client.Set(ctx, AuthCachePrefix+userID, tokenHash, AuthCacheTTL).Err()
}

func (c *RedisAuthCache) Get(ctx context.Context, userID string) (string, error) {
	v, err := c.client.Get(ctx, AuthCachePrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (c *RedisAuthCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, AuthCachePrefix+userID).Err()
}

// MemoryAuthCache is an in-process AuthCache for tests and single-node dev runs.
type MemoryAuthCache struct {
	mu     sync.RWMutex
	hashes map[string]string
}

func NewMemoryAuthCache() *MemoryAuthCache {
	return &MemoryAuthCache{hashes: map[string]string{}}
}

func (c *MemoryAuthCache) Set(_ context.Context, userID, tokenHash string) error {
	c.mu.Lock()
	c.hashes[userID] = tokenHash
	c.mu.Unlock()
	return nil
}

func (c *MemoryAuthCache) Get(_ context.Context, userID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hashes[userID], nil
}

func (c *MemoryAuthCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	delete(c.hashes, userID)
	c.mu.Unlock()
	return nil
}
