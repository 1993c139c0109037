package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Providers []Provider
	Layers    []Layer
}

// LoadAppConfig читает и валидирует YAML-описание слоёв кэша.
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	return ParseAppConfig(data)
}

func ParseAppConfig(data []byte) (*AppConfig, error) {
	var interm AppConfigIntermediary
	if err := yaml.Unmarshal(data, &interm); err != nil {
		return nil, fmt.Errorf("yaml unmarshal error: %w", err)
	}

	if err := interm.Validate(); err != nil {
		return nil, fmt.Errorf("config validate error: %w", err)
	}

	return &AppConfig{
		Providers: interm.Providers,
		Layers:    interm.Layers,
	}, nil
}

// DefaultAppConfig описывает единственный слой: внешний redis, если задан redisURL,
// иначе ограниченный FIFO-кэш в памяти процесса.
func DefaultAppConfig(redisURL string) *AppConfig {
	if redisURL != "" {
		return &AppConfig{
			Providers: []Provider{&Redis{
				ProviderMeta: ProviderMeta{Name: "redis", Type: ProviderTypeRedis},
				URL:          redisURL,
				PoolSize:     10,
				Timeout:      time.Second,
			}},
			Layers: []Layer{{Name: "redis", Mode: LayerModeEnabled}},
		}
	}
	return &AppConfig{
		Providers: []Provider{&Fifo{
			ProviderMeta: ProviderMeta{Name: "memory", Type: ProviderTypeFifo},
			Capacity:     DefaultFifoCapacity,
		}},
		Layers: []Layer{{Name: "memory", Mode: LayerModeEnabled}},
	}
}

// OverrideRedisURL подставляет url во все redis-провайдеры конфигурации.
// Пустой url ничего не меняет.
func (c *AppConfig) OverrideRedisURL(url string) int {
	if url == "" {
		return 0
	}
	n := 0
	for _, p := range c.Providers {
		if r, ok := p.(*Redis); ok {
			r.URL = url
			n++
		}
	}
	return n
}
