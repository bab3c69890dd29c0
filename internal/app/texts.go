package service

import "github.com/okian/typeboard/internal/domain/model"

var seedTexts = []struct{ text, difficulty string }{ //nolint:gochecknoglobals // seed data
	{"Fresh coffee and a quiet morning make any task feel lighter", "easy"},
	{"The small boat drifted slowly past the old stone harbor", "easy"},
	{"Every key you press is a small step toward faster fingers", "easy"},
	{"Bright lights filled the city as the evening train arrived", "easy"},
	{"Rain tapped on the window while the kettle began to sing", "easy"},
	{"Good habits are built one patient repetition at a time", "medium"},
	{"A clear plan turns a long project into a series of short walks", "medium"},
	{"Reading code carefully often teaches more than writing it quickly", "medium"},
	{"The library was silent except for the turning of thin pages", "medium"},
	{"Curiosity keeps the mind awake long after the lesson is over", "medium"},
	{"Strong teams share context early and ask questions without fear", "medium"},
	{"Distributed systems fail in surprising ways when clocks quietly disagree", "hard"},
	{"Measuring twice before committing a migration saves hours of painful recovery", "hard"},
	{"Idempotent handlers let clients retry requests without multiplying their effects", "hard"},
	{"Concurrency bugs hide in the narrow gap between reading a value and writing it back", "hard"},
}

func builtinTexts() []model.TypingText {
	out := make([]model.TypingText, len(seedTexts))
	for i, t := range seedTexts {
		out[i] = model.TypingText{Text: t.text, Difficulty: t.difficulty, IsActive: true}
	}
	return out
}
