package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/evalboard/internal/adapters/storage"
	service "github.com/okian/evalboard/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service reading from an in-memory bucket", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		backend := storage.NewMemoryBackend(storage.DefaultPrefix)
		store, err := storage.NewStore(backend, storage.WithFetchConcurrency(4))
		So(err, ShouldBeNil)

		svc := service.New(service.WithSource(store), service.WithClock(clock))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		put := func(key, body string) {
			So(backend.Put(ctx, key, []byte(body)), ShouldBeNil)
		}

		put("evaluation-results/team-a/result.json",
			`{"participantId":"team-a","modelName":"a","totalScore":0.82,"timestamp":1699990000,"evaluationCount":40,"status":"completed"}`)
		put("evaluation-results/team-b/llm-judge-team-b-1699999000/run/model_output.jsonl",
			`{"automatedEvaluationResult":{"scores":[{"metricName":"correctness","result":0.9},{"metricName":"style","result":0.7}]}}
{"automatedEvaluationResult":{"scores":[{"metricName":"correctness","result":0.7},{"metricName":"style","result":0.7}]}}`)
		put("evaluation-results/team-c/result.json", `{"participantId":"team-c","totalScore":0.4,"status":"pending"}`)
		put("evaluation-results/team-d/result.json", `{broken`)

		Convey("When the leaderboard is requested", func() {
			lb, err := svc.GetLeaderboard(ctx, service.Query{})

			Convey("Then decodable completed records should be ranked despite the corrupt one", func() {
				So(err, ShouldBeNil)
				So(lb.Total, ShouldEqual, 2)
				So(lb.Entries[0].ParticipantID, ShouldEqual, "team-a")
				So(lb.Entries[1].ParticipantID, ShouldEqual, "team-b")
				So(lb.Entries[1].TotalScore, ShouldAlmostEqual, 0.75, 1e-9)
				So(lb.Entries[1].EvaluationCount, ShouldEqual, 2)
				So(lb.Entries[1].Timestamp, ShouldEqual, 1699999000)
				So(lb.Stats.RecentEvaluations, ShouldEqual, 2)
			})
		})

		Convey("When a new result lands between two queries", func() {
			before, err := svc.GetLeaderboard(ctx, service.Query{})
			So(err, ShouldBeNil)

			put("evaluation-results/team-e/result.json",
				fmt.Sprintf(`{"participantId":"team-e","totalScore":0.99,"timestamp":%d,"status":"COMPLETED"}`, fixedNow.Unix()))
			after, err := svc.GetLeaderboard(ctx, service.Query{})

			Convey("Then the second query should see it", func() {
				So(err, ShouldBeNil)
				So(before.Total, ShouldEqual, 2)
				So(after.Total, ShouldEqual, 3)
				So(after.Entries[0].ParticipantID, ShouldEqual, "team-e")
				So(after.Stats.TopScore, ShouldEqual, 0.99)
			})
		})
	})
}
