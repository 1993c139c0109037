package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"telegram-alerts-go/alert"

	"translate-cache-service/internal/cache/config"
)

// Redis — внешнее хранилище без ограничения размера со стороны сервиса;
// вытеснение, если оно есть, определяется политикой самого Redis.
type Redis struct {
	rdb *redis.Client
}

const (
	minChunk = 400
	maxChunk = 500
)

func redisOptions(cfg config.Redis) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.Timeout > 0 {
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return opts, nil
}

func NewRedis(ctx context.Context, cfg config.Redis) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	zap.S().Infow("connected to Redis", "addr", opts.Addr, "db", opts.DB)
	return &Redis{rdb: rdb}, nil
}

// BatchGet читает значения через MGET, разбивая ключи на chunk'и.
func (c *Redis) BatchGet(ctx context.Context, keys []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { observe("redis", "get", start, err) }()

	result = make(map[string]string, len(keys))
	for _, chunk := range splitKeysToChunks(keys, minChunk, maxChunk) {
		vals, mgetErr := c.rdb.MGet(ctx, chunk...).Result()
		if mgetErr != nil {
			err = fmt.Errorf("ошибка пакетного получения из Redis: %w", mgetErr)
			return nil, err
		}
		for i, key := range chunk {
			if i >= len(vals) || vals[i] == nil {
				continue
			}
			if s, ok := vals[i].(string); ok {
				result[key] = s
			}
		}
	}
	return result, nil
}

// BatchPut записывает значения пайплайном SET с общим TTL.
func (c *Redis) BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { observe("redis", "put", start, err) }()

	if ttl < 0 {
		ttl = 0
	}
	for chunkIndex, chunk := range splitKeyValueToChunks(items, minChunk, maxChunk) {
		pipe := c.rdb.Pipeline()
		for key, value := range chunk {
			pipe.Set(ctx, key, value, ttl)
		}
		if _, err = pipe.Exec(ctx); err != nil {
			zap.S().Errorw(alert.Prefix("redis pipeline exec error"), "chunk", chunkIndex, "error", err)
			return fmt.Errorf("ошибка пакетного сохранения в Redis (chunk %d): %w", chunkIndex, err)
		}
	}
	return nil
}

// BatchDelete удаляет ключи через UNLINK.
func (c *Redis) BatchDelete(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { observe("redis", "delete", start, err) }()

	chunks := splitKeysToChunks(keys, minChunk, maxChunk)
	for chunkIndex, chunk := range chunks {
		if err = c.rdb.Unlink(ctx, chunk...).Err(); err != nil {
			zap.S().Errorw(alert.Prefix("redis unlink error"), "chunk", chunkIndex+1, "total", len(chunks), "error", err)
			return fmt.Errorf("ошибка пакетного удаления из Redis (chunk %d/%d, keys: %d): %w",
				chunkIndex+1, len(chunks), len(chunk), err)
		}
	}
	return nil
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

var _ CacheProvider = (*Redis)(nil)
