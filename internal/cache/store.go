package cache

import (
	"context"

	"go.uber.org/zap"

	"translate-cache-service/internal/cache/providers"
	"translate-cache-service/internal/translation"
)

// LayeredStore — синхронное хранилище переводов поверх Controller.
//
// Чтение идёт сверху вниз; значения, найденные на нижнем слое, фоново
// дописываются в верхние слои (backfill). Запись идёт во все включённые слои.
type LayeredStore struct {
	controller Controller
	runner     *Runner
}

func NewLayeredStore(controller Controller, runner *Runner) *LayeredStore {
	if controller == nil || runner == nil {
		panic("layered store requires controller and runner")
	}
	return &LayeredStore{controller: controller, runner: runner}
}

// GetMany возвращает срез длины len(keys); nil — промах.
// Нечитаемое значение считается промахом.
func (s *LayeredStore) GetMany(ctx context.Context, keys []string) ([]*translation.Entry, error) {
	out := make([]*translation.Entry, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	results, err := s.controller.GetAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	found := make(map[string]*translation.Entry, len(keys))
	for _, r := range results {
		for key, raw := range r.Hits {
			if _, ok := found[key]; ok {
				continue
			}
			entry, decodeErr := decodeEntry(raw)
			if decodeErr != nil {
				zap.S().Warnw("dropping undecodable cache entry", "key", key, "error", decodeErr)
				continue
			}
			found[key] = &entry
		}
	}

	for i, key := range keys {
		if e, ok := found[key]; ok {
			copied := *e
			out[i] = &copied
		}
	}

	s.backfill(results)
	return out, nil
}

// backfill дописывает попадания уровня L во все уровни выше него.
func (s *LayeredStore) backfill(results []*providers.GetResult) {
	for level, r := range results {
		if level == 0 || len(r.Hits) == 0 {
			continue
		}
		items := r.Hits
		bound := level - 1
		s.runner.Go("backfill", func(ctx context.Context) error {
			return s.controller.PutAll(ctx, items, bound)
		})
	}
}

// Put синхронно пишет запись во все слои.
func (s *LayeredStore) Put(ctx context.Context, key string, entry translation.Entry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return s.controller.PutAllToAllLevels(ctx, map[string]string{key: raw})
}

// Delete удаляет ключи со всех слоёв.
func (s *LayeredStore) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.controller.DeleteAll(ctx, keys)
}

func (s *LayeredStore) Close() error {
	return s.controller.Close()
}
