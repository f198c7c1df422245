package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "restaurantlens:embedding:"

// RedisCacheConfig configures the Redis embedding cache.
type RedisCacheConfig struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_CACHE_ENABLED" default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD" default:""`
	DB       int           `yaml:"db" env:"REDIS_DB" default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_CACHE_TTL" default:"168h"`
}

// RedisCache caches embeddings in Redis keyed by content hash, so
// reindexing an unchanged dataset skips the embedding service entirely.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed embedding cache and verifies
// connectivity.
func NewRedisCache(config *RedisCacheConfig) (*RedisCache, error) {
	if config == nil {
		return nil, &Error{Op: "cache", Message: "config is required"}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &Error{Op: "cache", Message: "failed to connect to redis", Cause: err}
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// CacheKey derives the cache key for a text under a given model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get implements EmbeddingCache
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, &Error{Op: "cache", Message: "redis get failed", Cause: err}
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, &Error{Op: "cache", Message: "corrupt cached embedding", Cause: err}
	}
	return vector, nil
}

// Set implements EmbeddingCache
func (c *RedisCache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return &Error{Op: "cache", Message: "failed to marshal embedding", Cause: err}
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return &Error{Op: "cache", Message: "redis set failed", Cause: err}
	}
	return nil
}

// Close implements EmbeddingCache
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Stats returns basic cache statistics for health reporting.
func (c *RedisCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	size, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return nil, &Error{Op: "cache", Message: "redis dbsize failed", Cause: err}
	}
	return map[string]interface{}{
		"keys": size,
		"ttl":  c.ttl.String(),
	}, nil
}
