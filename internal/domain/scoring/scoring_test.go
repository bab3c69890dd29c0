package scoring_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/typeboard/internal/domain/model"
	scoring "github.com/okian/typeboard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGameplayPoints(t *testing.T) {
	Convey("Given typing speeds", t, func() {
		Convey("Then 45 WPM earns 4 points", func() {
			So(scoring.GameplayPoints(45), ShouldEqual, 4)
		})

		Convey("Then slow games still earn the minimum", func() {
			So(scoring.GameplayPoints(0), ShouldEqual, 1)
			So(scoring.GameplayPoints(9.99), ShouldEqual, 1)
			So(scoring.GameplayPoints(10), ShouldEqual, 1)
			So(scoring.GameplayPoints(19.9), ShouldEqual, 1)
			So(scoring.GameplayPoints(20), ShouldEqual, 2)
		})

		Convey("Then speeds in the same bucket earn the same", func() {
			for bucket := 0.0; bucket < 300; bucket += 10 {
				low := scoring.GameplayPoints(bucket)
				for _, off := range []float64{0.1, 3, 7.5, 9.99} {
					So(scoring.GameplayPoints(bucket+off), ShouldEqual, low)
				}
			}
		})

		Convey("Then points never drop as speed grows", func() {
			prev := scoring.GameplayPoints(0)
			for wpm := 0.0; wpm <= 300; wpm += 0.5 {
				p := scoring.GameplayPoints(wpm)
				So(p, ShouldBeGreaterThanOrEqualTo, prev)
				So(p, ShouldBeGreaterThanOrEqualTo, 1)
				prev = p
			}
			So(scoring.GameplayPoints(300), ShouldEqual, 30)
		})
	})
}

func TestGameplayLabel(t *testing.T) {
	Convey("Given an accepted game", t, func() {
		game := model.GameplaySubmission{WPM: 45, Accuracy: 92, WordsTyped: 9, CharactersCorrect: 180, TimeElapsed: 60}

		Convey("When labelled", func() {
			label := scoring.GameplayLabel(game)

			Convey("Then the stats are embedded compactly", func() {
				So(label, ShouldEqual, "TYPING_GAME:45WPM:92%:9words")
				So(strings.HasPrefix(label, scoring.GameplayPrefix), ShouldBeTrue)
			})

			Convey("Then the label parses back", func() {
				parsed, err := scoring.ParseGameplayLabel(label)
				So(err, ShouldBeNil)
				So(parsed, ShouldResemble, scoring.ParsedGame{WPM: 45, Accuracy: 92, WordsTyped: 9})
			})
		})

		Convey("When stats are fractional", func() {
			game.WPM = 61.25
			game.Accuracy = 97.5
			label := scoring.GameplayLabel(game)
			So(label, ShouldEqual, "TYPING_GAME:61.25WPM:97.5%:9words")

			parsed, err := scoring.ParseGameplayLabel(label)
			So(err, ShouldBeNil)
			So(parsed.WPM, ShouldEqual, 61.25)
		})
	})

	Convey("Given labels that are not gameplay", t, func() {
		for _, label := range []string{"COMPLETE_ACTION", "TYPING_GAME:fastWPM:1%:1words", "TYPING_GAME:1WPM:2%", "TYPING_GAME:1:2%:3words"} {
			_, err := scoring.ParseGameplayLabel(label)
			So(errors.Is(err, scoring.ErrNotGameplayLabel), ShouldBeTrue)
		}
	})
}

func TestGenericLabel(t *testing.T) {
	Convey("Given generic actions", t, func() {
		Convey("Then empty actions fall back to the default tag", func() {
			label, err := scoring.GenericLabel("   ")
			So(err, ShouldBeNil)
			So(label, ShouldEqual, scoring.DefaultAction)
		})

		Convey("Then custom actions are kept", func() {
			label, err := scoring.GenericLabel(" DAILY_BONUS ")
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "DAILY_BONUS")
		})

		Convey("Then the gameplay prefix is reserved", func() {
			_, err := scoring.GenericLabel("TYPING_GAME:300WPM:100%:1000words")
			So(errors.Is(err, scoring.ErrInvalidAction), ShouldBeTrue)
		})

		Convey("Then oversized actions are refused", func() {
			_, err := scoring.GenericLabel(strings.Repeat("a", 256))
			So(errors.Is(err, scoring.ErrInvalidAction), ShouldBeTrue)
		})
	})
}
