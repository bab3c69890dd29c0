// Package validation checks client reported typing game results before any
// state is touched. Everything here is pure.
package validation

import (
	"fmt"
	"math"

	"github.com/okian/typeboard/internal/domain/model"
)

// Field names as they appear on the wire.
const (
	FieldWPM               = "wpm"
	FieldAccuracy          = "accuracy"
	FieldWordsTyped        = "wordsTyped"
	FieldCharactersCorrect = "charactersCorrect"
	FieldTimeElapsed       = "timeElapsed"
)

// Payload is the raw submission. Nil means the field was absent.
type Payload struct {
	WPM               *float64 `json:"wpm"`
	Accuracy          *float64 `json:"accuracy"`
	WordsTyped        *float64 `json:"wordsTyped"`
	CharactersCorrect *float64 `json:"charactersCorrect"`
	TimeElapsed       *float64 `json:"timeElapsed"`
}

// Bound is an inclusive range for one field.
type Bound struct {
	Field string
	Min   float64
	Max   float64
}

// Bounds lists the range checks in evaluation order.
// charactersCorrect is only checked for presence.
var Bounds = []Bound{ //nolint:gochecknoglobals // read-only table
	{Field: FieldWPM, Min: 0, Max: 300},
	{Field: FieldAccuracy, Min: 0, Max: 100},
	{Field: FieldWordsTyped, Min: 0, Max: 1000},
	{Field: FieldTimeElapsed, Min: 50, Max: 70},
}

// Validate returns the submission or the first failure.
// Missing or non-finite fields yield ErrInvalidPayload; range failures
// yield a *FieldError that matches ErrOutOfRange.
func Validate(p Payload) (model.GameplaySubmission, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{FieldWPM, p.WPM},
		{FieldAccuracy, p.Accuracy},
		{FieldWordsTyped, p.WordsTyped},
		{FieldCharactersCorrect, p.CharactersCorrect},
		{FieldTimeElapsed, p.TimeElapsed},
	}

	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		if f.v == nil {
			return model.GameplaySubmission{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, f.name)
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return model.GameplaySubmission{}, fmt.Errorf("%w: %s is not a number", ErrInvalidPayload, f.name)
		}
		values[f.name] = *f.v
	}

	for _, b := range Bounds {
		v := values[b.Field]
		if v < b.Min || v > b.Max {
			return model.GameplaySubmission{}, &FieldError{Field: b.Field, Min: b.Min, Max: b.Max, Value: v}
		}
	}

	return model.GameplaySubmission{
		WPM:               values[FieldWPM],
		Accuracy:          values[FieldAccuracy],
		WordsTyped:        values[FieldWordsTyped],
		CharactersCorrect: values[FieldCharactersCorrect],
		TimeElapsed:       values[FieldTimeElapsed],
	}, nil
}

// FromSubmission builds a fully populated payload. Used by clients and tests.
func FromSubmission(s model.GameplaySubmission) Payload {
	return Payload{
		WPM:               &s.WPM,
		Accuracy:          &s.Accuracy,
		WordsTyped:        &s.WordsTyped,
		CharactersCorrect: &s.CharactersCorrect,
		TimeElapsed:       &s.TimeElapsed,
	}
}
