package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"translate-cache-service/internal/cache/config"
)

// Service обслуживает один слой (level) кэша поверх CacheProvider.
//
// Реализации:
//   - ServiceImpl — включённый слой: GetAll делит ключи на hits/misses,
//     PutAll пишет с TTL слоя, DeleteAll удаляет;
//   - ServiceDisabled — выключенный слой: все ключи уходят в skipped, запись и удаление игнорируются.
//
// Благодаря этому включение/отключение слоя не требует изменений в клиентском коде.
type Service interface {
	Name() string
	Enabled() bool
	GetAll(ctx context.Context, keys []string) (*GetResult, error)
	PutAll(ctx context.Context, items map[string]string) error
	DeleteAll(ctx context.Context, keys []string) error
	Close() error
}

// GetResult — результат чтения одного слоя. Misses и Skipped сохраняют порядок входных ключей.
type GetResult struct {
	Hits    map[string]string
	Misses  []string
	Skipped []string
}

// CreateNewServiceList создаёт сервисы слоёв в порядке конфигурации.
// При ошибке уже открытые провайдеры закрываются.
func CreateNewServiceList(ctx context.Context, layers []*config.LayerProvider) ([]Service, error) {
	services := make([]Service, 0, len(layers))

	for i, layer := range layers {
		service, err := createService(ctx, layer)
		if err != nil {
			for _, s := range services {
				_ = s.Close()
			}
			return nil, fmt.Errorf("failed to create service for layer %d (name: %s): %w", i, layer.Name, err)
		}
		services = append(services, service)
	}
	return services, nil
}

func createService(ctx context.Context, layer *config.LayerProvider) (Service, error) {
	if !layer.Enabled() {
		return &ServiceDisabled{name: layer.Name}, nil
	}

	client, err := initProvider(ctx, layer.Provider)
	if err != nil {
		return nil, err
	}
	return NewService(layer.Name, client, layer.TTL), nil
}

func initProvider(ctx context.Context, p config.Provider) (CacheProvider, error) {
	switch c := p.(type) {
	case *config.Fifo:
		return NewFifo(*c), nil
	case *config.Ristretto:
		return NewRistretto(*c)
	case *config.Redis:
		return NewRedis(ctx, *c)
	case *config.RocksDB:
		return NewRocksDB(*c)
	case *config.SQL:
		return NewSQL(ctx, *c)
	default:
		return nil, fmt.Errorf("unsupported provider type: %T", c)
	}
}

//////////////////////////
/// Concrete implementation
/////////////////////////

type ServiceImpl struct {
	name   string
	client CacheProvider
	ttl    time.Duration
}

func NewService(name string, client CacheProvider, ttl time.Duration) *ServiceImpl {
	return &ServiceImpl{name: name, client: client, ttl: ttl}
}

func (s *ServiceImpl) Name() string  { return s.name }
func (s *ServiceImpl) Enabled() bool { return true }

// Client возвращает провайдер слоя.
func (s *ServiceImpl) Client() CacheProvider { return s.client }

func (s *ServiceImpl) GetAll(ctx context.Context, keys []string) (*GetResult, error) {
	if len(keys) == 0 {
		return &GetResult{Hits: map[string]string{}, Misses: []string{}, Skipped: []string{}}, nil
	}

	values, err := s.client.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("BatchGet error: %w", err)
	}

	hits := make(map[string]string, len(values))
	misses := make([]string, 0, len(keys)-len(values))
	for _, key := range keys {
		if val, ok := values[key]; ok {
			hits[key] = val
		} else {
			misses = append(misses, key)
		}
	}
	return &GetResult{Hits: hits, Misses: misses, Skipped: []string{}}, nil
}

func (s *ServiceImpl) PutAll(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	return s.client.BatchPut(ctx, items, s.ttl)
}

func (s *ServiceImpl) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.BatchDelete(ctx, keys)
}

func (s *ServiceImpl) Close() error {
	return s.client.Close()
}

//////////////////////////
/// DisabledService
/////////////////////////

type ServiceDisabled struct {
	name string
}

func (s *ServiceDisabled) Name() string  { return s.name }
func (s *ServiceDisabled) Enabled() bool { return false }

func (s *ServiceDisabled) GetAll(_ context.Context, keys []string) (*GetResult, error) {
	return &GetResult{Hits: map[string]string{}, Misses: []string{}, Skipped: keys}, nil
}

func (s *ServiceDisabled) PutAll(context.Context, map[string]string) error { return nil }
func (s *ServiceDisabled) DeleteAll(context.Context, []string) error      { return nil }
func (s *ServiceDisabled) Close() error                                   { return nil }

// CloseAll закрывает все сервисы и собирает ошибки.
func CloseAll(services []Service) error {
	errs := make([]error, 0)
	for _, s := range services {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close layer %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
