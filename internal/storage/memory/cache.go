package memory

import (
	"context"
	"sync"
)

// Cache implements storage.BalanceCache in process memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]map[string]float64
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]map[string]float64)}
}

func (c *Cache) GetBalances(_ context.Context, key string) (map[string]float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return copyBalances(b), true, nil
}

func (c *Cache) PutBalances(_ context.Context, key string, balances map[string]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = copyBalances(balances)
	return nil
}

func (c *Cache) DeleteBalances(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func copyBalances(b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
