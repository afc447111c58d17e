package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/evalboard/pkg/tracing"
	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider(t *testing.T) {
	Convey("Given tracing configuration", t, func() {
		ctx := context.Background()

		Convey("When tracing is disabled", func() {
			p, err := tracing.NewProvider(ctx, tracing.Config{Enabled: false})

			Convey("Then a no-op provider should be returned", func() {
				So(err, ShouldBeNil)
				So(p.Enabled(), ShouldBeFalse)
				So(p.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the service name is missing", func() {
			_, err := tracing.NewProvider(ctx, tracing.Config{Enabled: true, SamplingRate: 1})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, tracing.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the sampling rate is out of range", func() {
			_, err := tracing.NewProvider(ctx, tracing.Config{Enabled: true, ServiceName: "evalboard", SamplingRate: 1.5})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, tracing.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the exporter type is unknown", func() {
			_, err := tracing.NewProvider(ctx, tracing.Config{
				Enabled: true, ServiceName: "evalboard", SamplingRate: 1, ExporterType: "zipkin",
			})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, tracing.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestStartSpan(t *testing.T) {
	Convey("Given an in-memory span recorder installed globally", t, func() {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		defer otel.SetTracerProvider(prev)

		Convey("When a span ends with an error", func() {
			_, end := tracing.StartSpan(context.Background(), "storage.list", attribute.String("bucket", "results"))
			end(errors.New("unreachable"))

			Convey("Then the span should carry the error status", func() {
				spans := recorder.Ended()
				So(len(spans), ShouldEqual, 1)
				So(spans[0].Name(), ShouldEqual, "storage.list")
				So(spans[0].Status().Code, ShouldEqual, codes.Error)
			})
		})

		Convey("When a span ends cleanly", func() {
			_, end := tracing.StartSpan(context.Background(), "ranking.rank")
			end(nil)

			Convey("Then the span should not be marked as failed", func() {
				spans := recorder.Ended()
				So(len(spans), ShouldEqual, 1)
				So(spans[0].Status().Code, ShouldEqual, codes.Unset)
			})
		})
	})
}
