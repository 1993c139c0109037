package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"translate-cache-service/internal/cache/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	data     map[string]string
	lastTTL  time.Duration
	getErr   error
	closed   bool
	closeErr error
}

func (m *mockProvider) BatchGet(_ context.Context, keys []string) (map[string]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mockProvider) BatchPut(_ context.Context, items map[string]string, ttl time.Duration) error {
	m.lastTTL = ttl
	for k, v := range items {
		m.data[k] = v
	}
	return nil
}

func (m *mockProvider) BatchDelete(_ context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockProvider) Close() error {
	m.closed = true
	return m.closeErr
}

func TestServiceImpl_GetAllSplitsHitsAndMisses(t *testing.T) {
	p := &mockProvider{data: map[string]string{"a": "1", "c": "3"}}
	s := NewService("l0", p, time.Hour)

	res, err := s.GetAll(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "c": "3"}, res.Hits)
	assert.Equal(t, []string{"b", "d"}, res.Misses)
	assert.Empty(t, res.Skipped)
}

func TestServiceImpl_PutAllUsesLayerTTL(t *testing.T) {
	p := &mockProvider{data: map[string]string{}}
	s := NewService("l1", p, 720*time.Hour)

	require.NoError(t, s.PutAll(context.Background(), map[string]string{"k": "v"}))
	assert.Equal(t, 720*time.Hour, p.lastTTL)
	assert.Equal(t, "v", p.data["k"])
}

func TestServiceImpl_GetAllError(t *testing.T) {
	s := NewService("l0", &mockProvider{getErr: errors.New("down")}, 0)
	_, err := s.GetAll(context.Background(), []string{"k"})
	assert.ErrorContains(t, err, "BatchGet error")
}

func TestServiceDisabled_SkipsEverything(t *testing.T) {
	s := &ServiceDisabled{name: "off"}

	res, err := s.GetAll(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Skipped)
	assert.Empty(t, res.Hits)
	assert.False(t, s.Enabled())
	assert.NoError(t, s.PutAll(context.Background(), map[string]string{"a": "1"}))
}

func TestCreateNewServiceList(t *testing.T) {
	srv := miniredis.RunT(t)
	layers := []*config.LayerProvider{
		{Name: "mem", Mode: config.LayerModeEnabled, Provider: &config.Fifo{ProviderMeta: config.ProviderMeta{Name: "mem", Type: config.ProviderTypeFifo}, Capacity: 10}},
		{Name: "off", Mode: config.LayerModeDisabled, Provider: &config.Fifo{ProviderMeta: config.ProviderMeta{Name: "off", Type: config.ProviderTypeFifo}, Capacity: 10}},
		{Name: "redis", Mode: config.LayerModeEnabled, TTL: time.Hour, Provider: &config.Redis{
			ProviderMeta: config.ProviderMeta{Name: "redis", Type: config.ProviderTypeRedis},
			URL:          "redis://" + srv.Addr(), PoolSize: 2, Timeout: time.Second,
		}},
	}

	services, err := CreateNewServiceList(context.Background(), layers)
	require.NoError(t, err)
	defer CloseAll(services)

	require.Len(t, services, 3)
	assert.IsType(t, &Fifo{}, services[0].(*ServiceImpl).Client())
	assert.IsType(t, &ServiceDisabled{}, services[1])
	assert.IsType(t, &Redis{}, services[2].(*ServiceImpl).Client())
	assert.Equal(t, "redis", services[2].Name())
}

func TestCreateNewServiceList_ClosesOnError(t *testing.T) {
	layers := []*config.LayerProvider{
		{Name: "mem", Mode: config.LayerModeEnabled, Provider: &config.Fifo{Capacity: 10}},
		{Name: "bad", Mode: config.LayerModeEnabled, Provider: &config.Unknown{}},
	}

	_, err := CreateNewServiceList(context.Background(), layers)
	assert.ErrorContains(t, err, "layer 1 (name: bad)")
	assert.ErrorContains(t, err, "unsupported provider type")
}

func TestCloseAll_JoinsErrors(t *testing.T) {
	ok := &mockProvider{}
	bad := &mockProvider{closeErr: errors.New("stuck")}

	err := CloseAll([]Service{NewService("a", ok, 0), NewService("b", bad, 0), &ServiceDisabled{}})
	assert.ErrorContains(t, err, "close layer b: stuck")
	assert.True(t, ok.closed)
}
