package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translate-cache-service/api/dto"
	"translate-cache-service/internal/settings"
)

// deeplStub отвечает как DeepL: каждый текст превращается в "<text>@<lang>".
func deeplStub(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text       []string `json:"text"`
			TargetLang string   `json:"target_lang"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls.Add(1)

		type tr struct {
			Text string `json:"text"`
		}
		out := struct {
			Translations []tr `json:"translations"`
		}{}
		for _, s := range req.Text {
			out.Translations = append(out.Translations, tr{Text: s + "@" + req.TargetLang})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestBuild_EndToEndWithDefaultFifoLayer(t *testing.T) {
	srv, calls := deeplStub(t)
	t.Setenv("API_KEY", "test")
	t.Setenv("DEEPL_URL", srv.URL)

	s, err := settings.Load("")
	require.NoError(t, err)

	a, err := Build(context.Background(), s)
	require.NoError(t, err)
	defer a.Close()

	body := `{"reviews":[{"author":"Ann","text":"Hello"},{"text":"World"}],"targetLang":"FR"}`
	send := func() dto.TranslateResponse {
		req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		a.Router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp dto.TranslateResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	first := send()
	require.Len(t, first.TranslatedTexts, 2)
	assert.Equal(t, dto.TranslatedText{Author: "Ann@FR", Title: "", Text: "Hello@FR"}, first.TranslatedTexts[0])
	assert.Equal(t, dto.TranslatedText{Author: "", Title: "", Text: "World@FR"}, first.TranslatedTexts[1])
	assert.EqualValues(t, 2, calls.Load())

	// запись в кэш отложенная
	require.Eventually(t, func() bool {
		entries, err := a.Store.GetMany(context.Background(), []string{"Hello\x00FR", "World\x00FR"})
		return err == nil && entries[0] != nil && entries[1] != nil
	}, time.Second, 10*time.Millisecond)

	second := send()
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, calls.Load())
}

func TestBuild_RejectsMissingKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	s, err := settings.Load("")
	require.NoError(t, err)

	_, err = Build(context.Background(), s)
	assert.ErrorContains(t, err, "API_KEY")
}
