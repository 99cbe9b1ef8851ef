package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/connecta/internal/config"
)

// generationTTL outlives any cached value guarded by the generation.
const generationTTL = 24 * time.Hour

// RedisCache holds the ephemeral state of the engine: typing flags, online
// connection counters and the relay pub/sub bus all share this client.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value under key. A missing key is ("", false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.Client.Decr(ctx, key).Result()
}

// decrOrDelete decrements a counter and removes it once it reaches zero,
// in one step so a concurrent INCR is never wiped out.
var decrOrDelete = redis.NewScript(`
local n = redis.call("DECR", KEYS[1])
if n <= 0 then
	redis.call("DEL", KEYS[1])
	return 0
end
return n
`)

// DecrOrDelete decrements key and deletes it at zero. Returns the new value,
// never below zero.
func (c *RedisCache) DecrOrDelete(ctx context.Context, key string) (int64, error) {
	return decrOrDelete.Run(ctx, c.Client, []string{key}).Int64()
}

// setIfGeneration writes KEYS[1] only while the generation counter KEYS[2]
// still holds ARGV[1]. A missing counter reads as 0.
var setIfGeneration = redis.NewScript(`
local g = tonumber(redis.call("GET", KEYS[2]) or "0")
if g ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// Generation returns the counter under genKey, 0 when unset.
func (c *RedisCache) Generation(ctx context.Context, genKey string) (int64, error) {
	n, err := c.Client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetIfGeneration caches value under key unless genKey moved past gen since
// the caller read it. Reports whether the value was written.
func (c *RedisCache) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value string, ttl time.Duration) (bool, error) {
	n, err := setIfGeneration.Run(ctx, c.Client, []string{key, genKey}, gen, value, ttl.Milliseconds()).Int64()
	return n == 1, err
}

// Invalidate drops key and bumps genKey in one transaction, so readers that
// loaded their value before the bump cannot write it back.
func (c *RedisCache) Invalidate(ctx context.Context, key, genKey string) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// KeyForTyping mirrors typingStatus/{conversationId}/{userId}.
func (c *RedisCache) KeyForTyping(conversationID, userID string) string {
	return fmt.Sprintf("typingStatus:%s:%s", conversationID, userID)
}

// KeyForOnline holds the number of live relay connections of a user.
func (c *RedisCache) KeyForOnline(userID string) string {
	return fmt.Sprintf("presence:online:%s", userID)
}

// KeyForLikeRequests caches the pending like-request count of a user.
func (c *RedisCache) KeyForLikeRequests(userID string) string {
	return fmt.Sprintf("likes:pending:%s", userID)
}

// KeyForLikeRequestsGen is bumped on every write that changes the count.
func (c *RedisCache) KeyForLikeRequestsGen(userID string) string {
	return fmt.Sprintf("likes:pending:%s:gen", userID)
}
