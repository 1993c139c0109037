package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &stubTranslator{err: errors.New("503")}
	b := NewBreaker("test", BreakerConfig{Enabled: true, ConsecutiveFailures: 2, Timeout: time.Minute}, next)

	for i := 0; i < 2; i++ {
		_, err := b.Translate(context.Background(), []string{"a"}, "FR")
		require.EqualError(t, err, "503")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Translate(context.Background(), []string{"a"}, "FR")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls)
}

func TestBreaker_PassesResults(t *testing.T) {
	b := NewBreaker("ok", BreakerConfig{Enabled: true}, &stubTranslator{})

	out, err := b.Translate(context.Background(), []string{"a", "b"}, "FR")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CanceledContextDoesNotTrip(t *testing.T) {
	next := &stubTranslator{err: context.Canceled}
	b := NewBreaker("cancel", BreakerConfig{Enabled: true, ConsecutiveFailures: 1}, next)

	for i := 0; i < 3; i++ {
		_, err := b.Translate(context.Background(), []string{"a"}, "FR")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 3, next.calls)
}
