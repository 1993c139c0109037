package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"telegram-alerts-go/alert"

	"translate-cache-service/internal/metrics"
	"translate-cache-service/internal/translation"
)

const (
	// DefaultAsyncLimit — максимум одновременных фоновых операций с хранилищем.
	DefaultAsyncLimit   = 64
	DefaultWriteTimeout = 5 * time.Second
	// pendingPerToken — сколько задач может ждать токен на каждый токен.
	pendingPerToken = 16
)

// Runner выполняет фоновые операции с ограничением параллелизма.
// Go не блокирует вызывающего: задача сразу уходит в горутину и ждёт токен уже там.
// Число задач в очереди ограничено maxPending; сверх него задача отбрасывается.
type Runner struct {
	tokens  chan struct{}
	pending chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner создаёт Runner с очередью limit*16 задач.
func NewRunner(limit int, timeout time.Duration) *Runner {
	if limit <= 0 {
		limit = DefaultAsyncLimit
	}
	return NewRunnerWithQueue(limit, limit*pendingPerToken, timeout)
}

func NewRunnerWithQueue(limit, maxPending int, timeout time.Duration) *Runner {
	if limit <= 0 {
		limit = DefaultAsyncLimit
	}
	if maxPending < limit {
		maxPending = limit
	}
	if timeout <= 0 {
		zap.S().Warnf("async timeout ≤ 0 set %s", DefaultWriteTimeout)
		timeout = DefaultWriteTimeout
	}
	return &Runner{
		tokens:  make(chan struct{}, limit),
		pending: make(chan struct{}, maxPending),
		timeout: timeout,
	}
}

// Go запускает f в фоне. Возвращает false, если очередь полна и задача отброшена.
func (r *Runner) Go(name string, f func(ctx context.Context) error) bool {
	/* место в очереди — без ожидания */
	select {
	case r.pending <- struct{}{}:
	default:
		metrics.RecordAsyncDropped(name)
		zap.S().Errorw(alert.Prefix("async queue full, operation dropped"), "name", name, "queue", cap(r.pending))
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.pending }()

		/* забираем токен — если все заняты, ждём */
		r.tokens <- struct{}{}
		defer func() { <-r.tokens }()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		defer func() {
			if p := recover(); p != nil {
				zap.S().Errorf(alert.Prefix("async %s panic: %v"), name, p)
			}
		}()

		if err := f(ctx); err != nil {
			zap.S().Errorw(alert.Prefix("async operation failed"), "name", name, "error", err)
		}
	}()
	return true
}

// Wait дожидается завершения всех запущенных задач.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// SyncStore — хранилище с синхронной записью.
type SyncStore interface {
	GetMany(ctx context.Context, keys []string) ([]*translation.Entry, error)
	Put(ctx context.Context, key string, entry translation.Entry) error
	Delete(ctx context.Context, keys []string) error
	Close() error
}

// AsyncStore отвязывает запись и удаление от запроса: Set и Evict возвращаются сразу,
// ошибки только логируются.
type AsyncStore struct {
	store  SyncStore
	runner *Runner
}

func NewAsyncStore(store SyncStore, runner *Runner) *AsyncStore {
	return &AsyncStore{store: store, runner: runner}
}

func (a *AsyncStore) GetMany(ctx context.Context, keys []string) ([]*translation.Entry, error) {
	return a.store.GetMany(ctx, keys)
}

func (a *AsyncStore) Set(_ context.Context, key string, entry translation.Entry) {
	a.runner.Go("set", func(ctx context.Context) error {
		err := a.store.Put(ctx, key, entry)
		metrics.RecordCacheWrite(err)
		return err
	})
}

func (a *AsyncStore) Evict(_ context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	a.runner.Go("evict", func(ctx context.Context) error {
		return a.store.Delete(ctx, keys)
	})
}

// Close дожидается фоновых операций и закрывает хранилище.
func (a *AsyncStore) Close() error {
	a.runner.Wait()
	return a.store.Close()
}

var _ translation.Store = (*AsyncStore)(nil)
