package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// Set stores a value with a TTL. A nil client (redis not configured) is a
// silent no-op; the cache is an optimization, never a source of truth.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to write to redis")
	}
}

// Get returns the cached value and whether it was present.
func Get(ctx context.Context, key string) (string, bool) {
	if Rdb == nil {
		return "", false
	}
	val, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Del drops keys, used to invalidate cached device config on any write.
func Del(ctx context.Context, keys ...string) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("failed to delete from redis")
	}
}
