package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

const (
	keyPrefix = "brutalball:"
	// DefaultTTL keeps a scraped table around for a day.
	DefaultTTL = 24 * time.Hour
)

// TableKey is the Redis key of a cached table.
func TableKey(p extract.Page) string { return keyPrefix + "table:" + string(p) }

// TeamsKey is the Redis key of the cached team directory.
const TeamsKey = keyPrefix + "teams"

// RedisCache keeps scraped tables as JSON documents in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisCacheFromClient(client, DefaultTTL), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SetTable stores b under the page key with the cache TTL.
func (rc *RedisCache) SetTable(ctx context.Context, p extract.Page, b extract.Bundle) error {
	return rc.setJSON(ctx, TableKey(p), b)
}

// GetTable loads a cached table. It returns ErrNotFound on a miss.
func (rc *RedisCache) GetTable(ctx context.Context, p extract.Page) (extract.Bundle, error) {
	var b extract.Bundle
	err := rc.getJSON(ctx, TableKey(p), &b)
	return b, err
}

// SetTeams stores the team directory.
func (rc *RedisCache) SetTeams(ctx context.Context, dir teams.Directory) error {
	return rc.setJSON(ctx, TeamsKey, dir)
}

// GetTeams loads the team directory. It returns ErrNotFound on a miss.
func (rc *RedisCache) GetTeams(ctx context.Context) (teams.Directory, error) {
	var dir teams.Directory
	err := rc.getJSON(ctx, TeamsKey, &dir)
	return dir, err
}

func (rc *RedisCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl).Err()
}

func (rc *RedisCache) getJSON(ctx context.Context, key string, v any) error {
	data, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
