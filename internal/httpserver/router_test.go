package httpserver

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translate-cache-service/api/dto"
	"translate-cache-service/internal/translation"
)

type mockResolver struct {
	mu       sync.Mutex
	calls    int
	records  []translation.Record
	lang     string
	outcomes []translation.Outcome
	panics   bool
}

func (m *mockResolver) Resolve(_ context.Context, records []translation.Record, targetLang string) []translation.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.records = records
	m.lang = targetLang
	if m.panics {
		panic("boom")
	}
	if m.outcomes != nil {
		return m.outcomes
	}
	out := make([]translation.Outcome, len(records))
	for i, r := range records {
		if r.Text != nil {
			out[i].Entry.Text = *r.Text + "@" + targetLang
		}
	}
	return out
}

type mockEvictor struct {
	keys [][]string
}

func (m *mockEvictor) Evict(_ context.Context, keys []string) {
	m.keys = append(m.keys, keys)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentTypeJSON)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestWelcome(t *testing.T) {
	rr := httptest.NewRecorder()
	NewRouter(&mockResolver{}, nil, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Welcome", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(headerRequestID))
}

func TestHandleTranslate(t *testing.T) {
	resolver := &mockResolver{}
	rr := postJSON(t, NewRouter(resolver, nil, nil), translatePath,
		`{"reviews":[{"author":"A","text":"Hello"},{"text":"World"}],"targetLang":"FR"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "FR", resolver.lang)
	require.Len(t, resolver.records, 2)
	assert.Nil(t, resolver.records[1].Author)
	assert.JSONEq(t, `{"translatedTexts":[
		{"author":"","title":"","text":"Hello@FR"},
		{"author":"","title":"","text":"World@FR"}]}`, rr.Body.String())
}

func TestHandleTranslate_FailureMarker(t *testing.T) {
	resolver := &mockResolver{outcomes: []translation.Outcome{
		{Entry: translation.Entry{Text: "ok"}},
		{Err: errors.New("upstream down")},
	}}
	rr := postJSON(t, NewRouter(resolver, nil, nil), translatePath,
		`{"reviews":[{"text":"a"},{"text":"b"}],"targetLang":"DE"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.TranslateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.TranslatedTexts, 2)
	assert.False(t, resp.TranslatedTexts[0].Failed)
	assert.True(t, resp.TranslatedTexts[1].Failed)
}

func TestHandleTranslate_EmptyReviews(t *testing.T) {
	resolver := &mockResolver{}
	rr := postJSON(t, NewRouter(resolver, nil, nil), translatePath, `{"reviews":[],"targetLang":"FR"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"translatedTexts":[]}`, rr.Body.String())
}

func TestHandleTranslate_Validation(t *testing.T) {
	cases := map[string]string{
		"missing reviews":    `{"targetLang":"FR"}`,
		"null reviews":       `{"reviews":null,"targetLang":"FR"}`,
		"missing targetLang": `{"reviews":[{"text":"x"}]}`,
		"empty targetLang":   `{"reviews":[{"text":"x"}],"targetLang":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := &mockResolver{}
			rr := postJSON(t, NewRouter(resolver, nil, nil), translatePath, body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"Missing review or targetLang"}`, rr.Body.String())
			assert.Zero(t, resolver.calls)
		})
	}
}

func TestHandleTranslate_BadInput(t *testing.T) {
	router := NewRouter(&mockResolver{}, nil, nil)

	rr := postJSON(t, router, translatePath, `{"reviews":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, translatePath, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestHandleTranslate_PanicIsInternalError(t *testing.T) {
	rr := postJSON(t, NewRouter(&mockResolver{panics: true}, nil, nil), translatePath,
		`{"reviews":[{"text":"a"}],"targetLang":"FR"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Translation failed"}`, rr.Body.String())
}

func TestHandleEvict(t *testing.T) {
	evictor := &mockEvictor{}
	router := NewRouter(&mockResolver{}, evictor, nil)

	rr := postJSON(t, router, evictPath, `{"texts":["Hello","World"],"targetLang":"FR"}`)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, evictor.keys, 1)
	assert.Equal(t, []string{"Hello\x00FR", "World\x00FR"}, evictor.keys[0])

	rr = postJSON(t, router, evictPath, `{"texts":[],"targetLang":"FR"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvictRouteAbsentWithoutEvictor(t *testing.T) {
	rr := postJSON(t, NewRouter(&mockResolver{}, nil, nil), evictPath, `{"texts":["a"],"targetLang":"FR"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBodyLimit(t *testing.T) {
	big := `{"targetLang":"` + strings.Repeat("a", maxBodySize+1) + `"}`
	rr := postJSON(t, NewRouter(&mockResolver{}, nil, nil), translatePath, big)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = io.WriteString(gz, `{"reviews":[{"text":"`+strings.Repeat("long review ", 100)+`"}],"targetLang":"FR"}`)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, translatePath, &buf)
	req.Header.Set("Content-Encoding", encodingGzip)
	req.Header.Set("Accept-Encoding", encodingGzip)
	req.Header.Set("Content-Type", contentTypeJSON)
	rr := httptest.NewRecorder()
	NewRouter(&mockResolver{}, nil, nil).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, encodingGzip, rr.Header().Get(headerContentEncoding))
	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	var resp dto.TranslateResponse
	require.NoError(t, json.NewDecoder(zr).Decode(&resp))
	require.Len(t, resp.TranslatedTexts, 1)
	assert.True(t, strings.HasSuffix(resp.TranslatedTexts[0].Text, "@FR"))
}

func TestInvalidGzipBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, translatePath, strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", encodingGzip)
	req.Header.Set("Content-Type", contentTypeJSON)
	rr := httptest.NewRecorder()
	NewRouter(&mockResolver{}, nil, nil).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsRouter(t *testing.T) {
	router := NewMetricsRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, metricsHealthPath, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, metricsPath, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
