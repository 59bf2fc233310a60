package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const translationKeyPrefix = "translation:"

// RedisCache stores translations so a redelivered message does not call
// the translation service again.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(host, port string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

// Get returns the cached translation, if any.
func (r *RedisCache) Get(ctx context.Context, source, target, text string) (string, bool, error) {
	val, err := r.client.Get(ctx, translationKey(source, target, text)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failure: %w", err)
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, source, target, text, translated string) error {
	if err := r.client.Set(ctx, translationKey(source, target, text), translated, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func translationKey(source, target, text string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return translationKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
