package dto

import (
	"translate-cache-service/internal/translation"

	"go.uber.org/zap"
)

// Жизненный цикл
// POST /translate: Review -> translation.Record -> translation.Outcome -> TranslatedText
// POST /cache/evict: EvictRequest -> cache keys

func MapAllRecords(reviews []Review) []translation.Record {
	records := make([]translation.Record, len(reviews))
	for i, r := range reviews {
		records[i] = translation.Record{Author: r.Author, Title: r.Title, Text: r.Text}
	}
	return records
}

// MapTranslateResponse keeps one item per outcome, in order.
func MapTranslateResponse(outcomes []translation.Outcome) *TranslateResponse {
	texts := make([]TranslatedText, len(outcomes))
	for i, o := range outcomes {
		if o.Failed() {
			zap.S().Debugw("record translation failed", "index", i, "error", o.Err)
			texts[i] = TranslatedText{Failed: true}
			continue
		}
		texts[i] = TranslatedText{Author: o.Entry.Author, Title: o.Entry.Title, Text: o.Entry.Text}
	}
	return &TranslateResponse{TranslatedTexts: texts}
}

func MapAllEvictKeys(req *EvictRequest) []string {
	keys := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		keys[i] = translation.Key(text, req.TargetLang)
	}
	return keys
}
