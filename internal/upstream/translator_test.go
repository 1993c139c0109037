package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translate-cache-service/internal/metrics"
	"translate-cache-service/internal/translation"
)

type stubTranslator struct {
	calls int
	err   error
}

func (s *stubTranslator) Translate(_ context.Context, texts []string, _ string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return texts, nil
}

func TestInstrument_RecordsStatus(t *testing.T) {
	ok := metrics.UpstreamRequests.WithLabelValues("instr-test", "success")
	failed := metrics.UpstreamRequests.WithLabelValues("instr-test", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	tr := Instrument("instr-test", &stubTranslator{})
	_, err := tr.Translate(context.Background(), []string{"a"}, "FR")
	require.NoError(t, err)

	tr = Instrument("instr-test", &stubTranslator{err: errors.New("down")})
	_, err = tr.Translate(context.Background(), []string{"a"}, "FR")
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestDecodeTranslations(t *testing.T) {
	out, err := decodeTranslations(`{"translations":["a","b"]}`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	_, err = decodeTranslations(`{"translations":["a"]}`, 2)
	assert.ErrorIs(t, err, translation.ErrUpstreamMismatch)

	_, err = decodeTranslations(`nope`, 1)
	assert.Error(t, err)
}

func TestLLMPrompt_CarriesTextsAndSentinel(t *testing.T) {
	p, err := llmPrompt([]string{translation.Sentinel, "Hello \"world\""}, "FR")
	require.NoError(t, err)
	assert.Contains(t, p, `"FR"`)
	assert.Contains(t, p, `["-1-1-1-","Hello \"world\""]`)
}

func TestNew_ProviderSelection(t *testing.T) {
	tr, err := New(context.Background(), Config{DeepLKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &DeepL{}, tr.(*instrumented).next)

	tr, err = New(context.Background(), Config{Provider: ProviderOpenAI, OpenAIKey: "k", Breaker: BreakerConfig{Enabled: true}})
	require.NoError(t, err)
	assert.IsType(t, &Breaker{}, tr.(*instrumented).next)

	_, err = New(context.Background(), Config{Provider: ProviderDeepL})
	assert.ErrorContains(t, err, "API_KEY")

	_, err = New(context.Background(), Config{Provider: ProviderGemini})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "babelfish"})
	assert.ErrorContains(t, err, "unsupported")
}
