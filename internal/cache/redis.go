package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Redis struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisClient(ctx context.Context, addr string, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Error("redis ping failed", zap.String("address", addr), zap.Error(err))
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	log.Info("connected to redis", zap.String("address", addr))
	return client, nil
}

// NewRedis namespaces every key with prefix so several deployments can share
// one Redis database.
func NewRedis(client *redis.Client, prefix string, log *zap.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, log: log}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		r.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, r.prefix+key)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		r.log.Warn("redis del failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
