package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestStatus(t *testing.T) {
	convey.Convey("Given status tags as written by different producers", t, func() {
		convey.Convey("Then completed should match case-insensitively", func() {
			convey.So(model.Status("completed").IsCompleted(), convey.ShouldBeTrue)
			convey.So(model.Status("COMPLETED").IsCompleted(), convey.ShouldBeTrue)
			convey.So(model.Status(" Completed ").IsCompleted(), convey.ShouldBeTrue)
		})

		convey.Convey("Then other tags should not be completed", func() {
			convey.So(model.StatusFailed.IsCompleted(), convey.ShouldBeFalse)
			convey.So(model.StatusPending.IsCompleted(), convey.ShouldBeFalse)
			convey.So(model.Status("").IsCompleted(), convey.ShouldBeFalse)
		})

		convey.Convey("Then Normalized should lower-case and trim", func() {
			convey.So(model.Status(" FAILED").Normalized(), convey.ShouldEqual, "failed")
		})
	})
}

func TestEvaluationRecordNormalize(t *testing.T) {
	convey.Convey("Given a record with out-of-range scores", t, func() {
		rec := model.EvaluationRecord{
			ParticipantID: "p-1",
			TotalScore:    1.2,
			MetricScores: map[string]float64{
				"accuracy":  -0.1,
				"relevance": 0.5,
				"coherence": 3,
			},
		}

		convey.Convey("When normalizing", func() {
			n := rec.Normalize()

			convey.Convey("Then every offending value should be clamped and counted", func() {
				convey.So(n, convey.ShouldEqual, 3)
				convey.So(rec.TotalScore, convey.ShouldEqual, 1.0)
				convey.So(rec.MetricScores["accuracy"], convey.ShouldEqual, 0.0)
				convey.So(rec.MetricScores["relevance"], convey.ShouldEqual, 0.5)
				convey.So(rec.MetricScores["coherence"], convey.ShouldEqual, 1.0)
			})

			convey.Convey("And normalizing again should be a no-op", func() {
				convey.So(rec.Normalize(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a record with a NaN score", t, func() {
		rec := model.EvaluationRecord{TotalScore: math.NaN()}

		convey.Convey("Then HasNaN should flag it and Normalize should leave it alone", func() {
			convey.So(rec.HasNaN(), convey.ShouldBeTrue)
			convey.So(rec.Normalize(), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a record with a NaN metric", t, func() {
		rec := model.EvaluationRecord{TotalScore: 0.4, MetricScores: map[string]float64{"m": math.NaN()}}
		convey.So(rec.HasNaN(), convey.ShouldBeTrue)
	})
}

func TestLeaderboardEntryJSON(t *testing.T) {
	convey.Convey("Given a ranked entry", t, func() {
		entry := model.LeaderboardEntry{
			Rank: 2,
			EvaluationRecord: model.EvaluationRecord{
				ParticipantID:   "participant-001",
				ModelName:       "participant-001",
				TotalScore:      0.75,
				MetricScores:    map[string]float64{"accuracy": 0.75},
				Timestamp:       1700000000,
				EvaluationCount: 40,
				Status:          model.StatusCompleted,
			},
		}

		convey.Convey("When encoding to JSON", func() {
			raw, err := json.Marshal(entry)
			convey.So(err, convey.ShouldBeNil)

			var flat map[string]any
			convey.So(json.Unmarshal(raw, &flat), convey.ShouldBeNil)

			convey.Convey("Then record fields should sit next to rank", func() {
				convey.So(flat["rank"], convey.ShouldEqual, 2)
				convey.So(flat["participantId"], convey.ShouldEqual, "participant-001")
				convey.So(flat["totalScore"], convey.ShouldEqual, 0.75)
				convey.So(flat["timestamp"], convey.ShouldEqual, 1700000000)
				convey.So(flat["evaluationCount"], convey.ShouldEqual, 40)
				convey.So(flat["status"], convey.ShouldEqual, "completed")
				convey.So(flat, convey.ShouldContainKey, "metricScores")
			})
		})
	})
}

func TestScoreHistogram(t *testing.T) {
	convey.Convey("Given a fresh histogram", t, func() {
		h := model.NewScoreHistogram()

		convey.Convey("Then it should have five contiguous empty buckets over [0,1]", func() {
			convey.So(len(h), convey.ShouldEqual, model.HistogramBucketCount)
			convey.So(h.Total(), convey.ShouldEqual, 0)
			convey.So(h[0].Min, convey.ShouldEqual, 0.0)
			convey.So(h[4].Max, convey.ShouldEqual, 1.0)
			for i := 1; i < len(h); i++ {
				convey.So(h[i].Min, convey.ShouldEqual, h[i-1].Max)
			}
		})

		convey.Convey("Then Total should sum bucket counts", func() {
			h[1].Count = 2
			h[4].Count = 3
			convey.So(h.Total(), convey.ShouldEqual, 5)
		})
	})
}
