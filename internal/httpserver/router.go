package httpserver

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"telegram-alerts-go/alert"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"translate-cache-service/api/dto"
	"translate-cache-service/internal/translation"
)

const (
	maxBodySize           = 5 << 20          // Максимальный размер тела запроса: 5 МБ (5 * 2^20 байт)
	gzipThreshold         = 500              // Минимальный размер ответа для сжатия gzip: 500 байт
	rootPath              = "/"              // GET / - приветствие
	healthPath            = "/healthz"       // GET /healthz - проверка живости
	translatePath         = "/translate"     // POST /translate - перевод батча отзывов
	evictPath             = "/cache/evict"   // POST /cache/evict - удаление переводов из кэша
	metricsPath           = "/metrics"       // GET /metrics - отдельный листенер метрик
	metricsHealthPath     = "/health"        // GET /health на листенере метрик
	contentTypeJSON       = "application/json"
	headerContentEncoding = "Content-Encoding"
	headerAcceptEncoding  = "Accept-Encoding"
	headerVary            = "Vary"
	encodingGzip          = "gzip"

	msgMissingInput      = "Missing review or targetLang"
	msgTranslationFailed = "Translation failed"
)

// Resolver переводит батч записей; см. translation.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, records []translation.Record, targetLang string) []translation.Outcome
}

// Evictor удаляет ключи из кэша, не блокируя вызывающего.
type Evictor interface {
	Evict(ctx context.Context, keys []string)
}

// NewRouter возвращает http.Handler с зарегистрированными эндпоинтами API.
// evictor может быть nil, тогда /cache/evict не регистрируется.
// Пустой allowedOrigins разрешает любой Origin.
func NewRouter(resolver Resolver, evictor Evictor, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(MetricsMiddleware)
	r.Use(cors(allowedOrigins))
	r.Use(limitBody(maxBodySize))
	r.Use(decompressGzip)
	r.Use(compressGzip(gzipThreshold))

	r.Get(rootPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Welcome")
	})
	r.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post(translatePath, func(w http.ResponseWriter, r *http.Request) {
		handleTranslate(w, r, resolver)
	})
	if evictor != nil {
		r.Post(evictPath, func(w http.ResponseWriter, r *http.Request) {
			handleEvict(w, r, evictor)
		})
	}

	return r
}

// NewMetricsRouter отдаёт /metrics на отдельном порту.
func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, metricsPath, promhttp.Handler())
	r.Get(metricsHealthPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	return r
}

func handleTranslate(w http.ResponseWriter, r *http.Request, resolver Resolver) {
	defer r.Body.Close()
	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Errorw(alert.Prefix("translate handler panic"), "panic", rec, "requestId", RequestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, msgTranslationFailed)
		}
	}()

	var req dto.TranslateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Reviews == nil || req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, msgMissingInput)
		return
	}

	outcomes := resolver.Resolve(r.Context(), dto.MapAllRecords(req.Reviews), req.TargetLang)

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed > 0 {
		zap.S().Warnw("batch translated with failures",
			"requestId", RequestIDFromContext(r.Context()),
			"records", len(outcomes), "failed", failed, "targetLang", req.TargetLang)
	}

	writeJSON(w, http.StatusOK, dto.MapTranslateResponse(outcomes))
}

func handleEvict(w http.ResponseWriter, r *http.Request, evictor Evictor) {
	defer r.Body.Close()
	var req dto.EvictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Texts) == 0 || req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, "Missing texts or targetLang")
		return
	}
	evictor.Evict(r.Context(), dto.MapAllEvictKeys(&req))
	zap.S().Infow("cache eviction scheduled", "requestId", RequestIDFromContext(r.Context()), "keys", len(req.Texts), "targetLang", req.TargetLang)
	w.WriteHeader(http.StatusAccepted)
}

// decodeJSON пишет ответ с ошибкой и возвращает false, если тело не JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeJSON) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported content type")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw(alert.Prefix("encode error"), "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, dto.ErrorResponse{Error: msg})
}

// ---- middleware ----

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func decompressGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerContentEncoding) == encodingGzip {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid gzip body")
				return
			}
			defer gz.Close()
			r.Body = struct{ io.ReadCloser }{gz}
		}
		next.ServeHTTP(w, r)
	})
}

type bufferResponseWriter struct {
	http.ResponseWriter
	code int
	buf  strings.Builder
	once sync.Once
}

func (b *bufferResponseWriter) WriteHeader(statusCode int) {
	b.once.Do(func() { b.code = statusCode })
}

func (b *bufferResponseWriter) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

func compressGzip(threshold int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get(headerAcceptEncoding), encodingGzip) {
				next.ServeHTTP(w, r)
				return
			}
			brw := &bufferResponseWriter{ResponseWriter: w}
			next.ServeHTTP(brw, r)

			if brw.code == 0 {
				brw.code = http.StatusOK
			}

			data := brw.buf.String()
			if len(data) < threshold {
				w.WriteHeader(brw.code)
				_, _ = io.WriteString(w, data)
				return
			}

			w.Header().Set(headerContentEncoding, encodingGzip)
			w.Header().Add(headerVary, headerAcceptEncoding)
			w.Header().Del("Content-Length")
			w.WriteHeader(brw.code)
			gz := gzip.NewWriter(w)
			if _, err := gz.Write([]byte(data)); err != nil {
				zap.S().Errorw(alert.Prefix("gzip write error"), "error", err)
			}
			gz.Close()
		})
	}
}
