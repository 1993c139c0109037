package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"translate-cache-service/internal/translation"
)

const (
	deeplFreeURL = "https://api-free.deepl.com"
	deeplProURL  = "https://api.deepl.com"
)

// APIError — ответ DeepL с кодом, отличным от 200.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deepl returned status %d: %s", e.StatusCode, e.Body)
}

// DeepL — клиент DeepL API v2 (POST /v2/translate).
type DeepL struct {
	authKey string
	baseURL string
	client  *http.Client
}

// NewDeepL создаёт клиента. Пустой baseURL выбирается по ключу:
// ключи бесплатного тарифа оканчиваются на ":fx".
func NewDeepL(authKey, baseURL string, client *http.Client) *DeepL {
	if baseURL == "" {
		baseURL = deeplProURL
		if strings.HasSuffix(authKey, ":fx") {
			baseURL = deeplFreeURL
		}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DeepL{authKey: authKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type deeplRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (d *DeepL) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	body, err := json.Marshal(deeplRequest{Text: texts, TargetLang: targetLang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v2/translate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.authKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call deepl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode deepl response: %w", err)
	}
	if len(out.Translations) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", translation.ErrUpstreamMismatch, len(texts), len(out.Translations))
	}

	result := make([]string, len(out.Translations))
	for i, t := range out.Translations {
		result[i] = t.Text
	}
	return result, nil
}
