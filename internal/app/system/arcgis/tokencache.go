package arcgis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "arcgis:token:"

// TokenCache stores generated tokens keyed by a credential hash. A cache
// miss is always safe; the client just mints a fresh token.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, token string, ttl time.Duration)
}

type noopTokenCache struct{}

func (noopTokenCache) Get(context.Context, string) (string, bool)         { return "", false }
func (noopTokenCache) Set(context.Context, string, string, time.Duration) {}

type memoryToken struct {
	token   string
	expires time.Time
}

type memoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryToken
}

// NewMemoryTokenCache builds the in-process cache used when Redis is not
// configured. Entries evict lazily on read.
func NewMemoryTokenCache() TokenCache {
	return &memoryTokenCache{entries: make(map[string]memoryToken)}
}

func (c *memoryTokenCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.token, true
}

func (c *memoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryToken{token: token, expires: time.Now().Add(ttl)}
}

type redisTokenCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisTokenCache builds the shared cache used when Redis is
// configured, so replicas reuse each other's tokens. Redis trouble
// degrades to a miss rather than an error.
func NewRedisTokenCache(rdb *redis.Client, logger *zap.Logger) TokenCache {
	return &redisTokenCache{rdb: rdb, logger: logger}
}

func (c *redisTokenCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis token get failed", zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *redisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, token, ttl).Err(); err != nil {
		c.logger.Warn("redis token set failed", zap.Error(err))
	}
}
