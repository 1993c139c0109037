package providers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"translate-cache-service/internal/cache/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putOne(t *testing.T, f *Fifo, key, value string) {
	t.Helper()
	require.NoError(t, f.BatchPut(context.Background(), map[string]string{key: value}, 0))
}

func TestFifo_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	f := NewFifo(config.Fifo{Capacity: 10})
	defer f.Close()

	require.NoError(t, f.BatchPut(ctx, map[string]string{"Hello\x00FR": "a", "World\x00FR": "b"}, 0))

	res, err := f.BatchGet(ctx, []string{"Hello\x00FR", "World\x00FR", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Hello\x00FR": "a", "World\x00FR": "b"}, res)

	require.NoError(t, f.BatchDelete(ctx, []string{"Hello\x00FR"}))
	res, err = f.BatchGet(ctx, []string{"Hello\x00FR", "World\x00FR"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"World\x00FR": "b"}, res)
}

func TestFifo_EvictsOldestInsertedAtCapacity(t *testing.T) {
	ctx := context.Background()
	f := NewFifo(config.Fifo{Capacity: 3})

	for i := 0; i < 3; i++ {
		putOne(t, f, fmt.Sprintf("k%d", i), "v")
	}
	// чтение не продлевает жизнь записи
	_, _ = f.BatchGet(ctx, []string{"k0"})

	putOne(t, f, "k3", "v")

	res, err := f.BatchGet(ctx, []string{"k0", "k1", "k2", "k3"})
	require.NoError(t, err)
	assert.NotContains(t, res, "k0")
	assert.Len(t, res, 3)
	assert.Equal(t, 3, f.Len())
}

func TestFifo_OverwriteKeepsPositionAndEvictsNothing(t *testing.T) {
	ctx := context.Background()
	f := NewFifo(config.Fifo{Capacity: 2})

	putOne(t, f, "a", "1")
	putOne(t, f, "b", "1")
	putOne(t, f, "a", "2")

	res, _ := f.BatchGet(ctx, []string{"a", "b"})
	assert.Equal(t, map[string]string{"a": "2", "b": "1"}, res)

	putOne(t, f, "c", "1")
	res, _ = f.BatchGet(ctx, []string{"a", "b", "c"})
	assert.Equal(t, map[string]string{"b": "1", "c": "1"}, res)
}

func TestFifo_DefaultCapacity(t *testing.T) {
	f := NewFifo(config.Fifo{})
	for i := 0; i < config.DefaultFifoCapacity+1; i++ {
		putOne(t, f, fmt.Sprintf("k%d", i), "v")
	}
	assert.Equal(t, config.DefaultFifoCapacity, f.Len())

	res, _ := f.BatchGet(context.Background(), []string{"k0", "k1"})
	assert.Equal(t, map[string]string{"k1": "v"}, res)
}

func TestFifo_TTLExpiresLazily(t *testing.T) {
	ctx := context.Background()
	f := NewFifo(config.Fifo{Capacity: 5})
	now := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return now }

	require.NoError(t, f.BatchPut(ctx, map[string]string{"short": "v"}, time.Minute))
	putOne(t, f, "forever", "v")

	now = now.Add(2 * time.Minute)
	res, err := f.BatchGet(ctx, []string{"short", "forever"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"forever": "v"}, res)
	assert.Equal(t, 1, f.Len())
}

func TestFifo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFifo(config.Fifo{Capacity: 5})

	_, err := f.BatchGet(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, f.BatchPut(ctx, map[string]string{"a": "b"}, 0), context.Canceled)
	assert.Equal(t, 0, f.Len())
}
