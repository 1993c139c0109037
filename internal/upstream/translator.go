// Package upstream содержит клиентов внешних сервисов перевода.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"translate-cache-service/internal/metrics"
	"translate-cache-service/internal/translation"
)

// Translator переводит упорядоченный список строк и возвращает переводы в том же порядке.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

var _ translation.Translator = (Translator)(nil)

// instrumented пишет метрики каждого вызова.
type instrumented struct {
	name string
	next Translator
}

func Instrument(name string, next Translator) Translator {
	return &instrumented{name: name, next: next}
}

func (t *instrumented) Translate(ctx context.Context, texts []string, targetLang string) (out []string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordUpstreamRequest(t.name, err, time.Since(start).Seconds())
	}()
	return t.next.Translate(ctx, texts, targetLang)
}

// translationsPayload — JSON, который возвращают LLM-переводчики.
type translationsPayload struct {
	Translations []string `json:"translations"`
}

func decodeTranslations(content string, want int) ([]string, error) {
	var p translationsPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if len(p.Translations) != want {
		return nil, fmt.Errorf("%w: sent %d, got %d", translation.ErrUpstreamMismatch, want, len(p.Translations))
	}
	return p.Translations, nil
}

// llmPrompt строит инструкцию для LLM-переводчиков.
func llmPrompt(texts []string, targetLang string) (string, error) {
	input, err := json.Marshal(texts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Translate every string of the JSON array below into the language with code %q. "+
			"Keep the order and the number of items. Return the string %q unchanged. "+
			"Respond only with a JSON object of the form {\"translations\": [\"...\"]}.\n\n%s",
		targetLang, translation.Sentinel, input,
	), nil
}
