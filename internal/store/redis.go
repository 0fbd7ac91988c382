// internal/store/redis.go
//
// Redis-backed Store, for players who keep their client state on a shared
// host. The slot lives at <prefix><origin>:numerito_game_id with no TTL.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int
	Prefix   string // key prefix (default: "numerito:")
}

// Redis stores the slot under a single key.
type Redis struct {
	rdb *redis.Client
	key string
}

// DialRedis connects and pings the server before returning.
func DialRedis(ctx context.Context, cfg RedisConfig, origin string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, cfg.Prefix, origin), nil
}

// NewRedis wraps an existing client without checking connectivity.
func NewRedis(rdb *redis.Client, prefix, origin string) *Redis {
	if prefix == "" {
		prefix = "numerito:"
	}
	return &Redis{rdb: rdb, key: prefix + origin + ":" + Key}
}

// Close closes the Redis connection.
func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) Read(ctx context.Context) (string, bool) {
	id, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("read session id")
		return "", false
	}
	return id, id != ""
}

func (r *Redis) Write(ctx context.Context, id string) {
	if err := r.rdb.Set(ctx, r.key, id, 0).Err(); err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("write session id")
	}
}

func (r *Redis) Clear(ctx context.Context) {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("clear session id")
	}
}
