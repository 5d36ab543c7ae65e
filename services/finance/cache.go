package finance

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const statsCachePrefix = "finance:stats:"

// StatsCache stores rendered dashboard cards.
type StatsCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type RedisStatsCache struct {
	client *redis.Client
}

func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

func (c *RedisStatsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, statsCachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, statsCachePrefix+key, val, ttl).Err()
}

type memoryEntry struct {
	val     []byte
	expires time.Time
}

// MemoryStatsCache is a process-local StatsCache.
type MemoryStatsCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{entries: map[string]memoryEntry{}}
}

func (c *MemoryStatsCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{val: val, expires: time.Now().Add(ttl)}
	return nil
}
