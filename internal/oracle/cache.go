package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"

	"github.com/dusk-indust/transmute/internal/metrics"
)

// Cache stores oracle responses by key.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Compile-time interface checks.
var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns an unexpired entry.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// RedisCache stores responses in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at addr and pings it.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	return dialRedis(ctx, &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisCacheFromURL connects using a redis:// or rediss:// URL.
func NewRedisCacheFromURL(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("oracle: parse redis url: %w", err)
	}
	return dialRedis(ctx, opts)
}

func dialRedis(ctx context.Context, opts *redis.Options) (*RedisCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("oracle: connect to redis %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: client}, nil
}

// Get reads key; redis.Nil is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes key with ttl.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CacheOptions configures WithCache.
type CacheOptions struct {
	// Namespace separates keys of different providers and models.
	Namespace string
	TTL       time.Duration
	Metrics   *metrics.Metrics
	Logger    logr.Logger
}

type cached struct {
	next  Oracle
	cache Cache
	opts  CacheOptions
}

// WithCache answers repeated prompts from cache. Cache failures are logged
// and the call falls through to next; errors from next are never cached.
func WithCache(next Oracle, cache Cache, opts CacheOptions) Oracle {
	return &cached{next: next, cache: cache, opts: opts}
}

func (c *cached) Invoke(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)

	v, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.opts.Logger.Error(err, "oracle cache read failed", "key", key)
	}
	if ok {
		c.opts.Metrics.ObserveCache(true)
		return v, nil
	}
	c.opts.Metrics.ObserveCache(false)

	out, err := c.next.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, out, c.opts.TTL); err != nil {
		c.opts.Logger.Error(err, "oracle cache write failed", "key", key)
	}
	return out, nil
}

func (c *cached) key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "transmute:oracle:" + c.opts.Namespace + ":" + hex.EncodeToString(sum[:])
}
