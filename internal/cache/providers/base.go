package providers

import (
	"context"
	"time"

	"translate-cache-service/internal/metrics"
)

// CacheProvider — многоключевое хранилище строк с TTL и отменой через контекст.
// Ключи сравниваются побайтно.
type CacheProvider interface {

	// BatchGet возвращает найденные значения. Отсутствующие и просроченные ключи в результат не попадают.
	BatchGet(ctx context.Context, keys []string) (map[string]string, error)

	// BatchPut сохраняет значения; ttl == 0 — без срока жизни. Повторная запись ключа перезаписывает значение.
	BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) error

	// BatchDelete удаляет указанные ключи.
	BatchDelete(ctx context.Context, keys []string) error

	// Close освобождает ресурсы.
	Close() error
}

const contextCheckInterval = 100

// observe пишет метрики операции провайдера. Вызывается через defer.
func observe(provider, operation string, start time.Time, err error) {
	metrics.RecordProviderLatency(provider, operation, time.Since(start).Seconds())
	metrics.RecordProviderOp(provider, operation, err)
}

// checkCtx проверяет отмену контекста раз в contextCheckInterval итераций.
func checkCtx(ctx context.Context, i int) error {
	if i%contextCheckInterval != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// calcChunkSize вычисляет размер chunk'а в пределах [minSize, maxSize] так,
// чтобы элементы распределились по chunk'ам равномерно.
func calcChunkSize(givenSize int, minSize int, maxSize int) int {
	if givenSize <= maxSize {
		return givenSize
	}

	chunks := (givenSize + maxSize - 1) / maxSize
	size := (givenSize + chunks - 1) / chunks

	if size < minSize {
		return minSize
	}
	if size > maxSize {
		return maxSize
	}
	return size
}

// splitKeyValueToChunks разбивает map на chunk'и; порядок элементов не гарантирован.
func splitKeyValueToChunks(keyValues map[string]string, minSize int, maxSize int) []map[string]string {
	if len(keyValues) == 0 {
		return []map[string]string{}
	}

	chunkSize := calcChunkSize(len(keyValues), minSize, maxSize)
	chunks := make([]map[string]string, 0, (len(keyValues)+chunkSize-1)/chunkSize)
	current := make(map[string]string, chunkSize)

	for key, value := range keyValues {
		current[key] = value
		if len(current) == chunkSize {
			chunks = append(chunks, current)
			current = make(map[string]string, chunkSize)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitKeysToChunks разбивает срез ключей на chunk'и, сохраняя порядок.
func splitKeysToChunks(keys []string, minSize int, maxSize int) [][]string {
	if len(keys) == 0 {
		return [][]string{}
	}

	chunkSize := calcChunkSize(len(keys), minSize, maxSize)
	chunks := make([][]string, 0, (len(keys)+chunkSize-1)/chunkSize)

	for i := 0; i < len(keys); i += chunkSize {
		end := min(i+chunkSize, len(keys))
		chunks = append(chunks, keys[i:end])
	}
	return chunks
}
