package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"telegram-alerts-go/alert"

	"translate-cache-service/internal/app"
	"translate-cache-service/internal/httpserver"
	"translate-cache-service/internal/logger"
	"translate-cache-service/internal/metrics"
	"translate-cache-service/internal/settings"
)

const shutdownTimeout = 15 * time.Second

func main() {
	s, err := settings.Load(settings.DefaultEnvFile)
	if err != nil {
		log.Fatalf("settings load failed: %v", err)
	}

	if _, err := logger.Init(s.LogLevel, s.LogDevelopment); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := app.Build(ctx, s)
	if err != nil {
		zap.S().Fatalw(alert.Prefix("service init failed"), "error", err)
	}

	servers := []*http.Server{
		newServer(service.Router, s.Port),
		newServer(httpserver.NewMetricsRouter(), s.MetricsPort),
	}

	// оба сервера работают параллельно; main ждёт сигнала и их остановки
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			listenServer(srv, stop)
		}(srv)
	}

	<-ctx.Done()
	zap.S().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorw("server shutdown error", "addr", srv.Addr, "error", err)
		}
	}
	wg.Wait()

	// отложенные записи в кэш дописываются до закрытия провайдеров
	if err := service.Close(); err != nil {
		zap.S().Errorw("cache close error", "error", err)
	}
}

func newServer(router http.Handler, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenServer(srv *http.Server, stop context.CancelFunc) {
	zap.S().Infow("starting server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Errorw(alert.Prefix("server error"), "addr", srv.Addr, "error", err)
		stop()
	}
}
