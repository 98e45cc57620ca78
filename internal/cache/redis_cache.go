package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/salepoint/api/internal/domain"
)

type RedisCatalogCache struct {
	client *redis.Client
}

func NewRedisCatalogCache(addr, password string, db int) *RedisCatalogCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCatalogCache{client: client}
}

func (c *RedisCatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}

func itemsKey(merchantID uuid.UUID) string {
	return "catalog:items:" + merchantID.String()
}

func (c *RedisCatalogCache) GetItems(ctx context.Context, merchantID uuid.UUID) ([]domain.Item, bool, error) {
	val, err := c.client.Get(ctx, itemsKey(merchantID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []domain.Item
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (c *RedisCatalogCache) SetItems(ctx context.Context, merchantID uuid.UUID, items []domain.Item, ttl time.Duration) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, itemsKey(merchantID), payload, ttl).Err()
}

func (c *RedisCatalogCache) InvalidateItems(ctx context.Context, merchantID uuid.UUID) error {
	return c.client.Del(ctx, itemsKey(merchantID)).Err()
}
