package providers

import (
	"container/list"
	"context"
	"sync"
	"time"

	"translate-cache-service/internal/cache/config"
	"translate-cache-service/internal/metrics"
)

// Fifo — ограниченный кэш в памяти процесса.
// При вставке сверх ёмкости вытесняется самая старая по времени вставки запись;
// чтение порядок не меняет. Перезапись существующего ключа сохраняет его позицию.
type Fifo struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front — самая старая запись
	items    map[string]*list.Element
	now      func() time.Time
}

type fifoItem struct {
	key       string
	value     string
	expiresAt time.Time // zero — без срока жизни
}

func NewFifo(cfg config.Fifo) *Fifo {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = config.DefaultFifoCapacity
	}
	return &Fifo{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

func (f *Fifo) BatchGet(ctx context.Context, keys []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { observe("fifo", "get", start, err) }()

	result = make(map[string]string, len(keys))

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for i, key := range keys {
		if err = checkCtx(ctx, i); err != nil {
			return nil, err
		}
		el, ok := f.items[key]
		if !ok {
			continue
		}
		item := el.Value.(*fifoItem)
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			f.order.Remove(el)
			delete(f.items, key)
			continue
		}
		result[key] = item.value
	}
	return result, nil
}

func (f *Fifo) BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { observe("fifo", "put", start, err) }()

	if len(items) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = f.now().Add(ttl)
	}

	evicted := 0
	count := 0
	for key, value := range items {
		if err = checkCtx(ctx, count); err != nil {
			break
		}
		count++

		if el, ok := f.items[key]; ok {
			item := el.Value.(*fifoItem)
			item.value = value
			item.expiresAt = expiresAt
			continue
		}
		if f.order.Len() >= f.capacity {
			oldest := f.order.Front()
			f.order.Remove(oldest)
			delete(f.items, oldest.Value.(*fifoItem).key)
			evicted++
		}
		f.items[key] = f.order.PushBack(&fifoItem{key: key, value: value, expiresAt: expiresAt})
	}
	metrics.RecordEvictions("fifo", evicted)
	return err
}

func (f *Fifo) BatchDelete(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { observe("fifo", "delete", start, err) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, key := range keys {
		if err = checkCtx(ctx, i); err != nil {
			return err
		}
		if el, ok := f.items[key]; ok {
			f.order.Remove(el)
			delete(f.items, key)
		}
	}
	return nil
}

// Len возвращает текущее число записей, включая ещё не вычищенные просроченные.
func (f *Fifo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order.Len()
}

func (f *Fifo) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order.Init()
	f.items = make(map[string]*list.Element)
	return nil
}

var _ CacheProvider = (*Fifo)(nil)
