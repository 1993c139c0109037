// Package app собирает сервис из настроек: кэш, переводчик, резолвер и HTTP-роутер.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"translate-cache-service/internal/cache"
	"translate-cache-service/internal/httpserver"
	"translate-cache-service/internal/settings"
	"translate-cache-service/internal/translation"
	"translate-cache-service/internal/upstream"
)

type App struct {
	Router   http.Handler
	Store    *cache.AsyncStore
	Resolver *translation.Resolver
}

// Build открывает слои кэша и создаёт переводчика. ctx ограничивает жизнь
// фоновых задач провайдеров (сборщики TTL).
func Build(ctx context.Context, s *settings.Settings) (*App, error) {
	appConfig, err := cache.LoadAppConfig(s.CacheConfig, s.RedisURL)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(ctx, appConfig, s.CacheWriteTimeout)
	if err != nil {
		return nil, err
	}

	translator, err := upstream.New(ctx, s.Upstream)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create translator: %w", err)
	}

	return build(store, translator, s.AllowedOrigins), nil
}

func build(store *cache.AsyncStore, translator upstream.Translator, allowedOrigins []string) *App {
	resolver := translation.NewResolver(store, translator)
	zap.S().Infow("service assembled", "allowedOrigins", allowedOrigins)
	return &App{
		Router:   httpserver.NewRouter(resolver, store, allowedOrigins),
		Store:    store,
		Resolver: resolver,
	}
}

// Close дожидается отложенных записей в кэш и закрывает провайдеры.
func (a *App) Close() error {
	return a.Store.Close()
}
