// Package redis provides a Redis-backed storage.BalanceCache so several
// engine replicas can share computed and synchronized balances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.BalanceCache = (*Cache)(nil)

// Cache stores balance vectors as JSON strings under a key prefix.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Cache. A zero ttl keeps entries until they are deleted.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) GetBalances(ctx context.Context, key string) (map[string]float64, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var balances map[string]float64
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, false, fmt.Errorf("decode balances %s: %w", key, err)
	}
	if balances == nil {
		balances = map[string]float64{}
	}
	return balances, true, nil
}

func (c *Cache) PutBalances(ctx context.Context, key string, balances map[string]float64) error {
	if balances == nil {
		balances = map[string]float64{}
	}
	data, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("encode balances %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) DeleteBalances(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
