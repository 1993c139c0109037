package cache

import (
	"encoding/json"
	"fmt"

	"translate-cache-service/internal/translation"
)

// Запись хранится как JSON-массив из трёх строк: ["author","title","text"].

func encodeEntry(e translation.Entry) (string, error) {
	b, err := json.Marshal([3]string{e.Author, e.Title, e.Text})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEntry(raw string) (translation.Entry, error) {
	var parts []string
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return translation.Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if len(parts) != 3 {
		return translation.Entry{}, fmt.Errorf("decode cache entry: expected 3 fields, got %d", len(parts))
	}
	return translation.Entry{Author: parts[0], Title: parts[1], Text: parts[2]}, nil
}
