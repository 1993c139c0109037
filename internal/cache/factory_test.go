package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"translate-cache-service/internal/cache/config"
	"translate-cache-service/internal/translation"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig_DefaultWithoutPath(t *testing.T) {
	cfg, err := LoadAppConfig("", "")
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, config.ProviderTypeFifo, cfg.Providers[0].GetType())
}

func TestLoadAppConfig_RedisOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  - {name: mem, type: fifo, capacity: 10}
  - {name: shared, type: redis, host: localhost, port: 6379, poolSize: 2, timeout: 1s}
layers:
  - {name: mem, mode: enabled}
  - {name: shared, mode: enabled, ttl: 1h}
`), 0o600))

	cfg, err := LoadAppConfig(path, "redis://cache:6380/1")
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6380/1", cfg.Providers[1].(*config.Redis).URL)
}

func TestLoadAppConfig_BadFile(t *testing.T) {
	_, err := LoadAppConfig(filepath.Join(t.TempDir(), "none.yaml"), "")
	assert.ErrorContains(t, err, "load cache config")
}

func TestNewStore_EndToEnd(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appConfig := &config.AppConfig{
		Providers: []config.Provider{
			&config.Fifo{ProviderMeta: config.ProviderMeta{Name: "mem", Type: config.ProviderTypeFifo}, Capacity: 300},
			&config.Redis{ProviderMeta: config.ProviderMeta{Name: "shared", Type: config.ProviderTypeRedis},
				URL: "redis://" + srv.Addr(), PoolSize: 2, Timeout: time.Second},
		},
		Layers: []config.Layer{
			{Name: "mem", Mode: config.LayerModeEnabled},
			{Name: "shared", Mode: config.LayerModeEnabled, TTL: time.Hour},
		},
	}

	store, err := NewStore(ctx, appConfig, time.Second)
	require.NoError(t, err)

	store.Set(ctx, translation.Key("Hello", "FR"), translation.Entry{Text: "Bonjour"})
	store.runner.Wait()

	raw, err := srv.Get("Hello\x00FR")
	require.NoError(t, err)
	assert.Equal(t, `["","","Bonjour"]`, raw)
	assert.Equal(t, time.Hour, srv.TTL("Hello\x00FR"))

	got, err := store.GetMany(ctx, []string{"Hello\x00FR", "World\x00FR"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got[0].Text)
	assert.Nil(t, got[1])

	require.NoError(t, store.Close())
}
