package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/typeboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeaderboardEntryJSON(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.LeaderboardEntry{
			Rank:      1,
			ID:        "u-1",
			Username:  "ada",
			Email:     "ada@example.com",
			Score:     42,
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		Convey("When encoded", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then the client field names are used", func() {
				var m map[string]any
				So(json.Unmarshal(raw, &m), ShouldBeNil)
				So(m["rank"], ShouldEqual, 1)
				So(m["username"], ShouldEqual, "ada")
				So(m["score"], ShouldEqual, 42)
				So(m["createdAt"], ShouldEqual, "2024-01-02T03:04:05Z")
			})
		})
	})
}

func TestUserViewJSON(t *testing.T) {
	Convey("Given a user view", t, func() {
		view := types.UserView{ID: "u-1", Username: "ada", Email: "ada@example.com", Score: 4}

		Convey("Then createdAt is omitted until it is set", func() {
			raw, err := json.Marshal(view)
			So(err, ShouldBeNil)
			So(string(raw), ShouldNotContainSubstring, "createdAt")

			created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
			view.CreatedAt = &created
			raw, err = json.Marshal(view)
			So(err, ShouldBeNil)
			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)
			So(m["createdAt"], ShouldEqual, "2024-01-02T03:04:05Z")
		})
	})
}

func TestGameStatsJSON(t *testing.T) {
	Convey("Given game stats", t, func() {
		stats := types.GameStats{WPM: 45, Accuracy: 92, WordsTyped: 9, CharactersCorrect: 180, TimeElapsed: 60}

		Convey("Then camelCase keys are emitted", func() {
			raw, err := json.Marshal(stats)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"wpm":45,"accuracy":92,"wordsTyped":9,"charactersCorrect":180,"timeElapsed":60}`)
		})
	})
}
