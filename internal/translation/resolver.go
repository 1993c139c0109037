package translation

import (
	"context"
	"fmt"
	"sync"
	"translate-cache-service/internal/metrics"

	"go.uber.org/zap"
	"telegram-alerts-go/alert"
)

// Resolver обрабатывает один батч перевода:
//   - считает ключи кэша и одним запросом читает их из Store;
//   - для промахов параллельно вызывает Translator (по одному вызову на запись);
//   - успешные переводы отдаёт в Store, не дожидаясь записи;
//   - собирает результат в исходном порядке.
//
// Resolver не хранит состояния между вызовами.
type Resolver struct {
	store      Store
	translator Translator
}

func NewResolver(store Store, translator Translator) *Resolver {
	if store == nil || translator == nil {
		panic("resolver requires store and translator")
	}
	return &Resolver{store: store, translator: translator}
}

// Resolve returns exactly len(records) outcomes, outcome i belonging to records[i].
// A failed upstream call marks only its own record as failed.
// If the cache lookup fails as a whole the batch is resolved as all-miss.
func (r *Resolver) Resolve(ctx context.Context, records []Record, targetLang string) []Outcome {
	outcomes := make([]Outcome, len(records))
	if len(records) == 0 {
		return outcomes
	}

	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key(targetLang)
	}

	cached := r.lookup(ctx, keys)

	misses := make([]int, 0, len(records))
	for i := range records {
		if cached[i] != nil {
			outcomes[i] = Outcome{Entry: *cached[i]}
			continue
		}
		misses = append(misses, i)
	}
	metrics.RecordTranslationRecords(metrics.RecordResultHit, len(records)-len(misses))
	metrics.RecordTranslationRecords(metrics.RecordResultMiss, len(misses))

	if len(misses) == 0 {
		return outcomes
	}

	zap.S().Debugw("resolving cache misses", "records", len(records), "misses", len(misses), "targetLang", targetLang)

	// отключение клиента не отменяет вызовы переводчика: оплаченный перевод всё равно попадёт в кэш
	upstreamCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(len(misses))
	for _, idx := range misses {
		go func(idx int) {
			defer wg.Done()
			outcomes[idx] = r.translateRecord(upstreamCtx, records[idx], keys[idx], targetLang)
		}(idx)
	}
	wg.Wait()

	return outcomes
}

// lookup always returns a slice of len(keys); on store failure every key is a miss.
func (r *Resolver) lookup(ctx context.Context, keys []string) []*Entry {
	cached, err := r.store.GetMany(ctx, keys)
	if err == nil && len(cached) != len(keys) {
		err = fmt.Errorf("store returned %d entries for %d keys", len(cached), len(keys))
	}
	if err != nil {
		zap.S().Errorw(alert.Prefix("cache lookup failed, treating batch as all-miss"), "keys", len(keys), "error", err)
		return make([]*Entry, len(keys))
	}
	return cached
}

func (r *Resolver) translateRecord(ctx context.Context, rec Record, key string, targetLang string) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = Outcome{Err: fmt.Errorf("translator panic: %v", p)}
		}
		if outcome.Failed() {
			metrics.RecordTranslationRecords(metrics.RecordResultFailed, 1)
			zap.S().Warnw("record translation failed", "key", key, "targetLang", targetLang, "error", outcome.Err)
		}
	}()

	texts := rec.upstreamTexts()
	translated, err := r.translator.Translate(ctx, texts, targetLang)
	if err != nil {
		return Outcome{Err: err}
	}
	if len(translated) != len(texts) {
		return Outcome{Err: fmt.Errorf("%w: sent %d, got %d", ErrUpstreamMismatch, len(texts), len(translated))}
	}

	entry := Entry{
		Author: restore(texts[0], translated[0]),
		Title:  restore(texts[1], translated[1]),
		Text:   restore(texts[2], translated[2]),
	}
	r.store.Set(ctx, key, entry)
	return Outcome{Entry: entry}
}

// restore maps a translated position back to "" when its input was the sentinel.
func restore(sent, got string) string {
	if sent == Sentinel {
		return ""
	}
	return got
}
