// Package scoring turns accepted actions into points and audit labels.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/typeboard/internal/domain/model"
)

// Label constants.
const (
	GameplayPrefix = "TYPING_GAME"
	DefaultAction  = "COMPLETE_ACTION"
	GenericPoints  = 1

	wpmPerPoint    = 10
	minimumAward   = 1
	maxLabelLength = 255
)

// Sentinel kinds for scoring errors.
var (
	ErrNotGameplayLabel = errors.New("not a gameplay label")
	ErrInvalidAction    = errors.New("invalid action label")
)

// GameplayPoints awards one point per 10 WPM, never less than one.
func GameplayPoints(wpm float64) int64 {
	points := int64(math.Floor(wpm / wpmPerPoint))
	if points < minimumAward {
		return minimumAward
	}
	return points
}

// GameplayLabel encodes the stats kept for audit, e.g. TYPING_GAME:45WPM:92%:9words.
func GameplayLabel(s model.GameplaySubmission) string {
	return fmt.Sprintf("%s:%sWPM:%s%%:%swords",
		GameplayPrefix, formatNumber(s.WPM), formatNumber(s.Accuracy), formatNumber(s.WordsTyped))
}

// GenericLabel returns action trimmed, or DefaultAction when empty.
// Labels starting with the gameplay prefix are rejected so the generic path
// cannot forge or mask gameplay entries.
func GenericLabel(action string) (string, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return DefaultAction, nil
	}
	if strings.HasPrefix(action, GameplayPrefix) {
		return "", fmt.Errorf("%w: %s prefix is reserved", ErrInvalidAction, GameplayPrefix)
	}
	if len(action) > maxLabelLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidAction, maxLabelLength)
	}
	return action, nil
}

// ParsedGame is the stats recovered from a gameplay label.
type ParsedGame struct {
	WPM        float64
	Accuracy   float64
	WordsTyped float64
}

// ParseGameplayLabel reverses GameplayLabel.
func ParseGameplayLabel(label string) (ParsedGame, error) {
	parts := strings.Split(label, ":")
	if len(parts) != 4 || parts[0] != GameplayPrefix {
		return ParsedGame{}, fmt.Errorf("%w: %q", ErrNotGameplayLabel, label)
	}
	wpm, err := parseSuffixed(parts[1], "WPM")
	if err != nil {
		return ParsedGame{}, err
	}
	acc, err := parseSuffixed(parts[2], "%")
	if err != nil {
		return ParsedGame{}, err
	}
	words, err := parseSuffixed(parts[3], "words")
	if err != nil {
		return ParsedGame{}, err
	}
	return ParsedGame{WPM: wpm, Accuracy: acc, WordsTyped: words}, nil
}

func parseSuffixed(s, suffix string) (float64, error) {
	num, ok := strings.CutSuffix(s, suffix)
	if !ok {
		return 0, fmt.Errorf("%w: %q lacks %s", ErrNotGameplayLabel, s, suffix)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotGameplayLabel, err)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
