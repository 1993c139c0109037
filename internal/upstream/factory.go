package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ProviderType string

const (
	ProviderDeepL  ProviderType = "deepl"
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)

type Config struct {
	Provider ProviderType

	DeepLKey string
	DeepLURL string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiKey   string
	GeminiModel string

	// Timeout ограничивает один HTTP-вызов переводчика; 0 — без ограничения.
	Timeout time.Duration
	Breaker BreakerConfig
}

// New создаёт переводчика по конфигурации: клиент провайдера, при необходимости
// circuit breaker и метрики поверх.
func New(ctx context.Context, cfg Config) (Translator, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var (
		base Translator
		err  error
	)
	switch cfg.Provider {
	case ProviderDeepL, "":
		if cfg.DeepLKey == "" {
			return nil, fmt.Errorf("API_KEY is required for deepl provider")
		}
		base = NewDeepL(cfg.DeepLKey, cfg.DeepLURL, httpClient)
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
		base = NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, httpClient)
	case ProviderGemini:
		base, err = NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel, httpClient)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", cfg.Provider)
	}

	name := string(cfg.Provider)
	if name == "" {
		name = string(ProviderDeepL)
	}
	zap.S().Infow("upstream translator created", "provider", name, "breaker", cfg.Breaker.Enabled, "timeout", cfg.Timeout)

	if cfg.Breaker.Enabled {
		base = NewBreaker(name, cfg.Breaker, base)
	}
	return Instrument(name, base), nil
}
