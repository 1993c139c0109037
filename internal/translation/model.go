package translation

import (
	"context"
	"errors"
)

// Sentinel подставляется вместо отсутствующего или пустого поля перед вызовом переводчика
// и убирается из ответа. Значение зарезервировано: оно не может быть реальным
// автором, заголовком или текстом отзыва.
const Sentinel = "-1-1-1-"

const keySeparator = "\x00"

// ErrUpstreamMismatch is returned when the translator answers with a list whose
// length differs from the list it was given.
var ErrUpstreamMismatch = errors.New("upstream returned mismatched translation count")

// Record — одна запись входного батча. nil означает, что поле отсутствует.
type Record struct {
	Author *string
	Title  *string
	Text   *string
}

// Key returns the cache key of the record for targetLang.
// Only the text takes part in the key: author and title are translated alongside
// the text and stored under the same entry.
func (r Record) Key(targetLang string) string {
	return Key(value(r.Text), targetLang)
}

// upstreamTexts builds the flat (author, title, text) list sent to the translator.
func (r Record) upstreamTexts() []string {
	return []string{
		orSentinel(r.Author),
		orSentinel(r.Title),
		orSentinel(r.Text),
	}
}

// Key builds the cache key from the source text and the target language code.
// Keys are compared byte for byte, nothing is normalized.
func Key(text, targetLang string) string {
	return text + keySeparator + targetLang
}

// Entry — переведённая тройка, хранимая в кэше.
type Entry struct {
	Author string
	Title  string
	Text   string
}

// Outcome is the per-record result of a batch: either a translated Entry or a failure.
type Outcome struct {
	Entry Entry
	Err   error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Store — хранилище кэша переводов.
//
// GetMany возвращает срез той же длины и в том же порядке, что keys; nil — промах.
// Set не должен блокировать вызывающего дольше локальной постановки в очередь.
type Store interface {
	GetMany(ctx context.Context, keys []string) ([]*Entry, error)
	Set(ctx context.Context, key string, entry Entry)
}

// Translator translates an ordered list of strings into targetLang and returns the
// translations in the same order.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orSentinel(s *string) string {
	if s == nil || *s == "" {
		return Sentinel
	}
	return *s
}
