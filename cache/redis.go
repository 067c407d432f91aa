package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig configures the redis cache provider.
type RedisConfig struct {
	// Redis server address, host:port.
	Addr string `yaml:"addr"`
	// Password, if the server requires one.
	Password string `yaml:"password"`
	// Database number.
	DB int `yaml:"db"`
	// Connection pool size. Zero uses the client default.
	PoolSize int `yaml:"poolSize"`
}

// RedisCache is a cache provider backed by a redis server.
// TTL handling and pattern matching are delegated to redis itself:
// entries are stored with SET EX and pattern operations use SCAN with MATCH,
// so patterns follow redis glob matching.
//
// The client is safe for concurrent use and pools its own connections.
type RedisCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisCache connects to the configured redis server.
// The connection is verified with a ping before the provider is returned.
func NewRedisCache(config RedisConfig, logger *zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to redis at %s: %w", config.Addr, err)
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("provider", "redis").Logger()
	} else {
		log = zerolog.Nop()
	}

	return &RedisCache{
		client: client,
		log:    log,
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (r *RedisCache) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// the client reports a missing key as -2 and a key without expiry as -1
	if ttl == -2 {
		return 0, false, nil
	}
	if ttl < 0 {
		return 0, true, nil
	}
	return ttl, true, nil
}

func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := r.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		r.log.Error().Err(err).Str("pattern", pattern).Msg("Could not delete keys")
		return int(removed), err
	}
	return int(removed), nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ CacheProvider = (*RedisCache)(nil)
