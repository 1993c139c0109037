package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"translate-cache-service/internal/cache/config"
	"translate-cache-service/internal/cache/providers"
)

// ttlCollectorInterval — период фоновой чистки просроченных записей у персистентных провайдеров.
const ttlCollectorInterval = 10 * time.Minute

type ttlCollector interface {
	StartTTLCollector(ctx context.Context, interval time.Duration)
}

// LoadAppConfig читает конфигурацию слоёв из path. Пустой path — конфигурация по умолчанию.
// Непустой redisURL подставляется во все redis-провайдеры.
func LoadAppConfig(path, redisURL string) (*config.AppConfig, error) {
	if path == "" {
		zap.S().Infow("cache config not set, using default single layer", "redis", redisURL != "")
		return config.DefaultAppConfig(redisURL), nil
	}

	appConfig, err := config.LoadAppConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load cache config %q: %w", path, err)
	}
	if n := appConfig.OverrideRedisURL(redisURL); n > 0 {
		zap.S().Infow("redis url overridden from environment", "providers", n)
	}
	return appConfig, nil
}

// CreateLayersCacheController открывает провайдеры всех слоёв.
// Фоновые сборщики TTL живут, пока не отменён ctx.
func CreateLayersCacheController(ctx context.Context, appConfig *config.AppConfig) (*ControllerImpl, error) {
	providerService := config.NewLayerProviderService(appConfig)

	services, err := providers.CreateNewServiceList(ctx, providerService.LayerProviders())
	if err != nil {
		return nil, fmt.Errorf("create cache layers: %w", err)
	}

	for _, s := range services {
		impl, ok := s.(*providers.ServiceImpl)
		if !ok {
			continue
		}
		if c, ok := impl.Client().(ttlCollector); ok {
			c.StartTTLCollector(ctx, ttlCollectorInterval)
		}
		zap.S().Infow("cache layer ready", "layer", s.Name())
	}
	return CreateControllerImpl(services), nil
}

// NewStore собирает хранилище переводов: слои из конфигурации, синхронный LayeredStore
// и асинхронную запись поверх него.
func NewStore(ctx context.Context, appConfig *config.AppConfig, writeTimeout time.Duration) (*AsyncStore, error) {
	controller, err := CreateLayersCacheController(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	runner := NewRunner(DefaultAsyncLimit, writeTimeout)
	return NewAsyncStore(NewLayeredStore(controller, runner), runner), nil
}
