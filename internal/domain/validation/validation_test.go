package validation_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

func validGame() model.GameplaySubmission {
	return model.GameplaySubmission{WPM: 45, Accuracy: 92, WordsTyped: 9, CharactersCorrect: 180, TimeElapsed: 60}
}

func fieldOf(err error) string {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}

func TestValidate(t *testing.T) {
	Convey("Given a well formed submission", t, func() {
		game := validGame()

		Convey("Then it passes through unchanged", func() {
			got, err := validation.Validate(validation.FromSubmission(game))
			So(err, ShouldBeNil)
			So(got, ShouldResemble, game)
		})

		Convey("When a field is missing", func() {
			p := validation.FromSubmission(game)
			p.CharactersCorrect = nil

			Convey("Then it is an invalid payload", func() {
				_, err := validation.Validate(p)
				So(errors.Is(err, validation.ErrInvalidPayload), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "charactersCorrect")
			})
		})

		Convey("When a field is not a finite number", func() {
			p := validation.FromSubmission(game)
			nan := math.NaN()
			p.Accuracy = &nan

			Convey("Then it is an invalid payload", func() {
				_, err := validation.Validate(p)
				So(errors.Is(err, validation.ErrInvalidPayload), ShouldBeTrue)
			})
		})

		Convey("When the payload is empty", func() {
			_, err := validation.Validate(validation.Payload{})
			So(errors.Is(err, validation.ErrInvalidPayload), ShouldBeTrue)
			So(errors.Is(err, validation.ErrOutOfRange), ShouldBeFalse)
		})
	})

	Convey("Given wpm outside [0,300]", t, func() {
		for _, wpm := range []float64{-0.5, -100, 300.01, 1e6} {
			game := validGame()
			game.WPM = wpm
			// every other field broken too; wpm is still reported first
			game.Accuracy = 500
			game.TimeElapsed = 5

			_, err := validation.Validate(validation.FromSubmission(game))
			So(errors.Is(err, validation.ErrOutOfRange), ShouldBeTrue)
			So(fieldOf(err), ShouldEqual, validation.FieldWPM)
		}
	})

	Convey("Given timeElapsed outside [50,70]", t, func() {
		for _, elapsed := range []float64{0, 49.99, 70.01, 600} {
			game := validGame()
			game.TimeElapsed = elapsed

			_, err := validation.Validate(validation.FromSubmission(game))
			So(errors.Is(err, validation.ErrOutOfRange), ShouldBeTrue)
			So(fieldOf(err), ShouldEqual, validation.FieldTimeElapsed)
		}
	})

	Convey("Given values sitting on the bounds", t, func() {
		cases := []model.GameplaySubmission{
			{WPM: 0, Accuracy: 0, WordsTyped: 0, CharactersCorrect: 0, TimeElapsed: 50},
			{WPM: 300, Accuracy: 100, WordsTyped: 1000, CharactersCorrect: 5000, TimeElapsed: 70},
		}
		for _, c := range cases {
			_, err := validation.Validate(validation.FromSubmission(c))
			So(err, ShouldBeNil)
		}
	})

	Convey("Given range failures in several fields", t, func() {
		game := validGame()
		game.Accuracy = 101
		game.WordsTyped = 1001

		Convey("Then accuracy is reported before wordsTyped", func() {
			_, err := validation.Validate(validation.FromSubmission(game))
			var fe *validation.FieldError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Field, ShouldEqual, validation.FieldAccuracy)
			So(fe.Min, ShouldEqual, 0)
			So(fe.Max, ShouldEqual, 100)
			So(fe.Value, ShouldEqual, 101)
			So(fe.Error(), ShouldEqual, "accuracy must be between 0 and 100, got 101")
		})
	})
}
