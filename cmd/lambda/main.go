// Package main — точка входа AWS Lambda: события API Gateway (HTTP API, payload v2)
// обслуживаются тем же роутером, что и HTTP-сервер.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
	"telegram-alerts-go/alert"

	"translate-cache-service/internal/app"
	"translate-cache-service/internal/logger"
	"translate-cache-service/internal/metrics"
	"translate-cache-service/internal/settings"
)

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

	// провайдеры живут столько же, сколько окружение Lambda
	service, err := app.Build(context.Background(), s)
	if err != nil {
		zap.S().Fatalw(alert.Prefix("service init failed"), "error", err)
	}

	lambda.Start(newHandler(service.Router))
}

func newHandler(router http.Handler) func(ctx context.Context, event json.RawMessage) (interface{}, error) {
	return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
		// Warmup detection (must be first)
		if warmup, ok := IsWarmupEvent(event); ok {
			return HandleWarmup(ctx, warmup)
		}

		var req events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(event, &req); err != nil {
			return nil, err
		}
		return serve(ctx, router, req)
	}
}
