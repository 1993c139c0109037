package dto

import (
	"encoding/json"
	"errors"
)

// ErrorMarker возвращается на месте записи, которую не удалось перевести.
const ErrorMarker = "Error"

// /////////////////////
//// Внешний API
///////////////////////

// Отзыв во входном батче. null или отсутствующее поле — nil.
type Review struct {
	Author *string `json:"author,omitempty"`
	Title  *string `json:"title,omitempty"`
	Text   *string `json:"text,omitempty"`
}

// POST /translate
type TranslateRequest struct {
	Reviews    []Review `json:"reviews"`
	TargetLang string   `json:"targetLang"`
}

// Результат перевода одной записи. Failed сериализуется как "Error".
type TranslatedText struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Failed bool   `json:"-"`
}

type translatedTextJSON struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

func (t TranslatedText) MarshalJSON() ([]byte, error) {
	if t.Failed {
		return json.Marshal(ErrorMarker)
	}
	return json.Marshal(translatedTextJSON{Author: t.Author, Title: t.Title, Text: t.Text})
}

func (t *TranslatedText) UnmarshalJSON(data []byte) error {
	var marker string
	if err := json.Unmarshal(data, &marker); err == nil {
		if marker != ErrorMarker {
			return errors.New("unexpected translated text marker: " + marker)
		}
		*t = TranslatedText{Failed: true}
		return nil
	}
	var v translatedTextJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = TranslatedText{Author: v.Author, Title: v.Title, Text: v.Text}
	return nil
}

type TranslateResponse struct {
	TranslatedTexts []TranslatedText `json:"translatedTexts"`
}

// POST /cache/evict
type EvictRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"targetLang"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
