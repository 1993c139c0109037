package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"translate-cache-service/internal/cache/config"
)

// Ristretto — in-process кэш с ограничением по суммарному размеру значений.
// Допуск и вытеснение записей определяет политика библиотеки (TinyLFU),
// поэтому записанное значение может так и не появиться в кэше.
type Ristretto struct {
	cache *ristretto.Cache
}

func NewRistretto(cfg config.Ristretto) (*Ristretto, error) {
	maxCostBytes, err := cfg.MaxCostBytes()
	if err != nil {
		return nil, err
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     int64(maxCostBytes),
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать Ristretto кэш: %w", err)
	}
	return &Ristretto{cache: cache}, nil
}

func (c *Ristretto) BatchGet(ctx context.Context, keys []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { observe("ristretto", "get", start, err) }()

	result = make(map[string]string, len(keys))
	for i, key := range keys {
		if err = checkCtx(ctx, i); err != nil {
			return nil, err
		}
		if val, ok := c.cache.Get(key); ok {
			if s, castOk := val.(string); castOk {
				result[key] = s
			}
		}
	}
	return result, nil
}

func (c *Ristretto) BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { observe("ristretto", "put", start, err) }()

	if len(items) == 0 {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}

	count := 0
	for key, val := range items {
		if err = checkCtx(ctx, count); err != nil {
			return err
		}
		count++
		c.cache.SetWithTTL(key, val, int64(len(key)+len(val)), ttl)
	}
	// Set буферизуется; ждём применения, чтобы запись была видна следующему чтению.
	c.cache.Wait()
	return nil
}

func (c *Ristretto) BatchDelete(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { observe("ristretto", "delete", start, err) }()

	for i, key := range keys {
		if err = checkCtx(ctx, i); err != nil {
			return err
		}
		c.cache.Del(key)
	}
	return nil
}

func (c *Ristretto) Close() error {
	if c.cache != nil {
		c.cache.Close()
		c.cache = nil
	}
	return nil
}

var _ CacheProvider = (*Ristretto)(nil)
