package ranking_test

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(id string, score float64, ts int64) model.EvaluationRecord {
	return model.EvaluationRecord{
		ParticipantID: id,
		ModelName:     id,
		TotalScore:    score,
		Timestamp:     ts,
		Status:        model.StatusCompleted,
	}
}

func TestRank(t *testing.T) {
	Convey("Given the ranking engine", t, func() {
		Convey("When the input is empty", func() {
			entries := ranking.Rank(nil)

			Convey("Then the output should be empty", func() {
				So(entries, ShouldNotBeNil)
				So(len(entries), ShouldEqual, 0)
			})
		})

		Convey("When there is a single record", func() {
			entries := ranking.Rank([]model.EvaluationRecord{rec("solo", 0.3, 10)})

			Convey("Then it should rank first", func() {
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].ParticipantID, ShouldEqual, "solo")
			})
		})

		Convey("When two records tie on score", func() {
			entries := ranking.Rank([]model.EvaluationRecord{
				rec("A", 0.9, 100),
				rec("B", 0.9, 50),
			})

			Convey("Then the earlier submission should rank first", func() {
				So(entries[0].ParticipantID, ShouldEqual, "B")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].ParticipantID, ShouldEqual, "A")
				So(entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When records tie on score and timestamp", func() {
			entries := ranking.Rank([]model.EvaluationRecord{
				rec("charlie", 0.5, 7),
				rec("alpha", 0.5, 7),
				rec("bravo", 0.5, 7),
			})

			Convey("Then participant id should break the tie and ranks stay unique", func() {
				So(entries[0].ParticipantID, ShouldEqual, "alpha")
				So(entries[1].ParticipantID, ShouldEqual, "bravo")
				So(entries[2].ParticipantID, ShouldEqual, "charlie")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When a record is not completed", func() {
			failed := rec("failed-one", 1.0, 1)
			failed.Status = model.StatusFailed
			pending := rec("pending-one", 0.99, 1)
			pending.Status = model.StatusPending
			entries := ranking.Rank([]model.EvaluationRecord{failed, rec("ok", 0.1, 1), pending})

			Convey("Then it should be excluded", func() {
				So(len(entries), ShouldEqual, 1)
				So(entries[0].ParticipantID, ShouldEqual, "ok")
			})
		})

		Convey("When the same participant has several records", func() {
			entries := ranking.Rank([]model.EvaluationRecord{
				rec("p", 0.4, 1),
				rec("p", 0.8, 2),
			})

			Convey("Then each record should be its own entry", func() {
				So(len(entries), ShouldEqual, 2)
				So(entries[0].TotalScore, ShouldEqual, 0.8)
			})
		})

		Convey("When ranking must not disturb the caller's slice", func() {
			input := []model.EvaluationRecord{rec("z", 0.1, 1), rec("a", 0.9, 1)}
			_ = ranking.Rank(input)

			Convey("Then the input order should be preserved", func() {
				So(input[0].ParticipantID, ShouldEqual, "z")
			})
		})
	})
}

func TestRankProperties(t *testing.T) {
	Convey("Given randomized record sets", t, func() {
		rng := rand.New(rand.NewSource(7))
		scores := []float64{0, 0.2, 0.5, 0.5, 0.75, 0.9, 1}

		for round := 0; round < 50; round++ {
			n := rng.Intn(40) + 1
			records := make([]model.EvaluationRecord, n)
			completed := 0
			for i := range records {
				records[i] = rec(fmt.Sprintf("p-%02d", rng.Intn(15)), scores[rng.Intn(len(scores))], int64(rng.Intn(5)))
				if rng.Intn(5) == 0 {
					records[i].Status = model.StatusFailed
				} else {
					completed++
				}
			}

			entries := ranking.Rank(records)

			So(len(entries), ShouldEqual, completed)
			for i, e := range entries {
				So(e.Rank, ShouldEqual, i+1)
				if i > 0 {
					prev := entries[i-1]
					So(ranking.Compare(prev.EvaluationRecord, e.EvaluationRecord), ShouldBeLessThanOrEqualTo, 0)
					if prev.TotalScore == e.TotalScore && prev.Timestamp == e.Timestamp {
						So(prev.ParticipantID <= e.ParticipantID, ShouldBeTrue)
					}
				}
			}

			again := ranking.Rank(records)
			So(reflect.DeepEqual(entries, again), ShouldBeTrue)
		}
	})
}

func TestCompare(t *testing.T) {
	Convey("Given pairs of records", t, func() {
		So(ranking.Less(rec("a", 0.9, 5), rec("a", 0.8, 1)), ShouldBeTrue)
		So(ranking.Less(rec("b", 0.8, 1), rec("a", 0.8, 2)), ShouldBeTrue)
		So(ranking.Less(rec("a", 0.8, 1), rec("b", 0.8, 1)), ShouldBeTrue)
		So(ranking.Compare(rec("a", 0.8, 1), rec("a", 0.8, 1)), ShouldEqual, 0)
	})
}

func TestTopAndFind(t *testing.T) {
	Convey("Given a ranked leaderboard", t, func() {
		entries := ranking.Rank([]model.EvaluationRecord{
			rec("a", 0.9, 1), rec("b", 0.7, 1), rec("c", 0.5, 1), rec("a", 0.3, 2),
		})

		Convey("Then Top should truncate without re-ranking", func() {
			top := ranking.Top(entries, 2)
			So(len(top), ShouldEqual, 2)
			So(top[1].Rank, ShouldEqual, 2)
			So(len(ranking.Top(entries, 0)), ShouldEqual, 4)
			So(len(ranking.Top(entries, 10)), ShouldEqual, 4)
		})

		Convey("Then Find should return the best entry for a participant", func() {
			e, ok := ranking.Find(entries, "a")
			So(ok, ShouldBeTrue)
			So(e.Rank, ShouldEqual, 1)

			_, ok = ranking.Find(entries, "missing")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestViews(t *testing.T) {
	Convey("Given view names", t, func() {
		v, err := ranking.ParseView("")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, ranking.ViewAll)

		v, err = ranking.ParseView("LATEST")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, ranking.ViewLatest)

		_, err = ranking.ParseView("best")
		So(errors.Is(err, ranking.ErrUnknownView), ShouldBeTrue)
	})

	Convey("Given several records for the same participant", t, func() {
		failedNewest := rec("p1", 0.99, 30)
		failedNewest.Status = model.StatusFailed
		records := []model.EvaluationRecord{
			rec("p1", 0.9, 10),
			rec("p2", 0.4, 5),
			rec("p1", 0.6, 20),
			failedNewest,
			rec("p2", 0.7, 5),
		}

		Convey("When applying the latest view", func() {
			latest := ranking.ViewLatest.Apply(records)

			Convey("Then only the newest completed record per participant should remain", func() {
				So(len(latest), ShouldEqual, 2)
				So(latest[0].ParticipantID, ShouldEqual, "p2")
				So(latest[0].TotalScore, ShouldEqual, 0.7)
				So(latest[1].ParticipantID, ShouldEqual, "p1")
				So(latest[1].TotalScore, ShouldEqual, 0.6)
			})
		})

		Convey("When applying the all view", func() {
			Convey("Then the records should pass through untouched", func() {
				So(len(ranking.ViewAll.Apply(records)), ShouldEqual, len(records))
			})
		})
	})
}
