// Package settings читает настройки процесса из окружения и необязательного .env файла.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"translate-cache-service/internal/upstream"
)

const DefaultEnvFile = ".env"

type Settings struct {
	Port              int
	MetricsPort       int
	AllowedOrigins    []string // пустой список — разрешены все
	LogLevel          string
	LogDevelopment    bool
	RedisURL          string
	CacheConfig       string // путь к YAML со слоями; пусто — один FIFO слой
	CacheWriteTimeout time.Duration
	Upstream          upstream.Config
}

// Load читает envFile (если он существует), затем переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(envFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	s := &Settings{
		Port:              v.GetInt("PORT"),
		MetricsPort:       v.GetInt("METRICS_PORT"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogDevelopment:    v.GetBool("LOG_DEVELOPMENT"),
		RedisURL:          v.GetString("REDIS"),
		CacheConfig:       v.GetString("CACHE_CONFIG"),
		CacheWriteTimeout: v.GetDuration("CACHE_WRITE_TIMEOUT"),
		Upstream: upstream.Config{
			Provider:      upstream.ProviderType(strings.ToLower(v.GetString("TRANSLATOR"))),
			DeepLKey:      v.GetString("API_KEY"),
			DeepLURL:      v.GetString("DEEPL_URL"),
			OpenAIKey:     v.GetString("OPENAI_API_KEY"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			GeminiKey:     v.GetString("GEMINI_API_KEY"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
			Timeout:       v.GetDuration("UPSTREAM_TIMEOUT"),
			Breaker: upstream.BreakerConfig{
				Enabled:             v.GetBool("BREAKER_ENABLED"),
				MaxRequests:         v.GetUint32("BREAKER_MAX_REQUESTS"),
				Interval:            v.GetDuration("BREAKER_INTERVAL"),
				Timeout:             v.GetDuration("BREAKER_TIMEOUT"),
				ConsecutiveFailures: v.GetUint32("BREAKER_FAILURES"),
			},
		},
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 3000)
	v.SetDefault("METRICS_PORT", 9080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)
	v.SetDefault("CACHE_WRITE_TIMEOUT", "5s")
	v.SetDefault("TRANSLATOR", string(upstream.ProviderDeepL))
	v.SetDefault("UPSTREAM_TIMEOUT", "0s")
	v.SetDefault("BREAKER_ENABLED", false)
	v.SetDefault("BREAKER_MAX_REQUESTS", 1)
	v.SetDefault("BREAKER_INTERVAL", "0s")
	v.SetDefault("BREAKER_TIMEOUT", "30s")
	v.SetDefault("BREAKER_FAILURES", 5)
}

func (s *Settings) validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", s.Port)
	}
	if s.MetricsPort <= 0 || s.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d", s.MetricsPort)
	}
	if s.MetricsPort == s.Port {
		return fmt.Errorf("METRICS_PORT must differ from PORT (%d)", s.Port)
	}
	if s.CacheWriteTimeout <= 0 {
		return fmt.Errorf("CACHE_WRITE_TIMEOUT must be positive, got %s", s.CacheWriteTimeout)
	}
	if s.Upstream.Timeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must not be negative, got %s", s.Upstream.Timeout)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
