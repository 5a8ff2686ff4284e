package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"

	"github.com/janhq/knowledge-memory/internal/metrics"
)

// Cache interface for embedding storage
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, value []float32, ttl time.Duration)
}

type CacheConfig struct {
	Type      string // "redis", "memory", "noop"
	RedisURL  string
	KeyPrefix string
	MaxSize   int
	TTL       time.Duration
	// RedisClient, when set, is used instead of dialing RedisURL.
	RedisClient redis.UniversalClient
}

// RedisCache stores embeddings as little-endian float32 blobs.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCache(redisURL, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, prefix), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(key string) ([]float32, bool) {
	data, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	if err != nil {
		metrics.RecordCacheMiss("redis")
		return nil, false
	}
	metrics.RecordCacheHit("redis")
	return decodeVector(data), true
}

func (c *RedisCache) Set(key string, value []float32, ttl time.Duration) {
	c.client.Set(context.Background(), c.prefix+key, encodeVector(value), ttl)
}

func encodeVector(value []float32) []byte {
	data := make([]byte, len(value)*4)
	for i, f := range value {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

// MemoryCache is an in-process LRU with per-entry expiry.
type MemoryCache struct {
	cache *lru.Cache
	mu    sync.Mutex
}

type cacheEntry struct {
	value     []float32
	expiresAt time.Time
}

func NewMemoryCache(maxSize int) (*MemoryCache, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: cache}, nil
}

func (c *MemoryCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, found := c.cache.Get(key)
	if !found {
		metrics.RecordCacheMiss("memory")
		return nil, false
	}

	entry := val.(cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.cache.Remove(key)
		metrics.RecordCacheMiss("memory")
		return nil, false
	}

	metrics.RecordCacheHit("memory")
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value []float32, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Add(key, cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
}

// NoOpsCache disables caching.
type NoOpsCache struct{}

func NewNoOpsCache() *NoOpsCache {
	return &NoOpsCache{}
}

func (c *NoOpsCache) Get(key string) ([]float32, bool) {
	return nil, false
}

func (c *NoOpsCache) Set(key string, value []float32, ttl time.Duration) {}

// NewCache builds the cache selected by config.Type.
func NewCache(config CacheConfig) (Cache, error) {
	switch config.Type {
	case "redis":
		if config.RedisClient != nil {
			return NewRedisCacheWithClient(config.RedisClient, config.KeyPrefix), nil
		}
		return NewRedisCache(config.RedisURL, config.KeyPrefix)
	case "memory":
		return NewMemoryCache(config.MaxSize)
	case "noop", "":
		return NewNoOpsCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", config.Type)
	}
}
