package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

const (
	catalogKey       = "catalog:items"
	revokedKeyPrefix = "revoked:"
	commitKeyTTL     = 24 * time.Hour
	catalogTTL       = 5 * time.Minute
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetCatalog(ctx context.Context) ([]domain.Item, bool, error) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []domain.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		// A corrupt snapshot is a miss; the next SetCatalog overwrites it.
		return nil, false, nil
	}
	return items, true, nil
}

func (r *RedisAdapter) SetCatalog(ctx context.Context, items []domain.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, catalogKey, raw, catalogTTL).Err()
}

func (r *RedisAdapter) InvalidateCatalog(ctx context.Context) error {
	return r.client.Del(ctx, catalogKey).Err()
}

func (r *RedisAdapter) SetCommitKey(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, key, 1, commitKeyTTL).Result()
}

func (r *RedisAdapter) ClearCommitKey(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (r *RedisAdapter) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
