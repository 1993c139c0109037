package cache

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"translate-cache-service/internal/cache/providers"
	"translate-cache-service/internal/metrics"
)

// ErrStoreUnavailable — ни один включённый слой не ответил на чтение.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Controller обходит слои кэша (L0 — самый быстрый).
//
//   - GetAll: идёт сверху вниз; следующему слою передаются только промахи и пропуски предыдущего.
//     Возвращает результат каждого слоя.
//   - PutAll: пишет во все слои до boundLevel включительно.
//   - PutAllToAllLevels: пишет во все слои.
//   - DeleteAll: удаляет из всех слоёв.
//
//	┌──────────────┐
//	│ Level 0      │  hits: {1}   misses: {2,3,4}   skips: {5}
//	└─────┬────────┘
//	      ↓
//	┌──────────────┐
//	│ Level 1      │  hits: {2,3} misses: {4}       skips: {5}
//	└─────┬────────┘
//	      ↓
//	┌──────────────┐
//	│ Level 2      │  hits: {4,5} misses: {}        skips: {}
//	└──────────────┘
type Controller interface {
	GetAll(ctx context.Context, keys []string) ([]*providers.GetResult, error)
	PutAll(ctx context.Context, items map[string]string, boundLevel int) error
	PutAllToAllLevels(ctx context.Context, items map[string]string) error
	DeleteAll(ctx context.Context, keys []string) error
	Close() error
}

type ControllerImpl struct {
	services []providers.Service
}

func CreateControllerImpl(services []providers.Service) *ControllerImpl {
	return &ControllerImpl{services: services}
}

// GetAll возвращает по одному GetResult на слой. Упавший слой пропускает ключи дальше.
// Если упали все включённые слои, возвращается ErrStoreUnavailable.
func (c *ControllerImpl) GetAll(ctx context.Context, keys []string) ([]*providers.GetResult, error) {
	results := make([]*providers.GetResult, len(c.services))
	enabled, failed := 0, 0
	var lastErr error

	for i, service := range c.services {
		if service.Enabled() {
			enabled++
		}
		r, err := service.GetAll(ctx, keys)
		if err != nil {
			failed++
			lastErr = err
			zap.S().Warnw("cache layer unavailable", "level", i, "layer", service.Name(), "error", err)
			results[i] = &providers.GetResult{Hits: map[string]string{}, Misses: []string{}, Skipped: keys}
			continue
		}
		if service.Enabled() {
			metrics.RecordCacheLayer(i, len(r.Hits), len(r.Misses))
		}
		results[i] = r
		keys = append(append(make([]string, 0, len(r.Misses)+len(r.Skipped)), r.Misses...), r.Skipped...)
	}

	if enabled > 0 && failed == enabled {
		return results, fmt.Errorf("%w: %v", ErrStoreUnavailable, lastErr)
	}
	return results, nil
}

// PutAll вставляет значения во все уровни до boundLevel включительно.
func (c *ControllerImpl) PutAll(ctx context.Context, items map[string]string, boundLevel int) error {
	var errs []error
	for i, service := range c.services {
		if i > boundLevel {
			break
		}
		if err := service.PutAll(ctx, items); err != nil {
			zap.S().Warnw("cache layer put failed", "level", i, "layer", service.Name(), "error", err)
			errs = append(errs, fmt.Errorf("layer %d (%s): %w", i, service.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *ControllerImpl) PutAllToAllLevels(ctx context.Context, items map[string]string) error {
	return c.PutAll(ctx, items, len(c.services)-1)
}

// DeleteAll удаляет значения со всех уровней.
func (c *ControllerImpl) DeleteAll(ctx context.Context, keys []string) error {
	var errs []error
	for i, service := range c.services {
		if err := service.DeleteAll(ctx, keys); err != nil {
			zap.S().Warnw("cache layer delete failed", "level", i, "layer", service.Name(), "error", err)
			errs = append(errs, fmt.Errorf("layer %d (%s): %w", i, service.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *ControllerImpl) Close() error {
	return providers.CloseAll(c.services)
}
