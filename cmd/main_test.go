package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/evalboard/internal/adapters/storage"
	"github.com/okian/evalboard/internal/config"
	"github.com/okian/evalboard/pkg/logger"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("EVALBOARD_ADDR", ":8080")
			_ = os.Setenv("EVALBOARD_LEADERBOARD__DEFAULT_LIMIT", "10")
			defer func() {
				_ = os.Unsetenv("EVALBOARD_ADDR")
				_ = os.Unsetenv("EVALBOARD_LEADERBOARD__DEFAULT_LIMIT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Leaderboard.DefaultLimit, convey.ShouldEqual, 10)
				convey.So(cfg.Storage.Backend, convey.ShouldEqual, config.BackendMemory)
			})
		})

		convey.Convey("When building storage backends", func() {
			ctx := context.Background()

			convey.Convey("Then memory should need no settings", func() {
				b, err := buildBackend(ctx, config.StorageConfig{Backend: config.BackendMemory})
				convey.So(err, convey.ShouldBeNil)
				convey.So(b, convey.ShouldHaveSameTypeAs, &storage.MemoryBackend{})
			})

			convey.Convey("And s3 without a bucket should fail", func() {
				_, err := buildBackend(ctx, config.StorageConfig{Backend: config.BackendS3})
				convey.So(errors.Is(err, storage.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("And s3 with static credentials should build", func() {
				b, err := buildBackend(ctx, config.StorageConfig{
					Backend:         config.BackendS3,
					Bucket:          "evals",
					Region:          "us-east-1",
					Endpoint:        "http://localhost:9000",
					AccessKeyID:     "test",
					SecretAccessKey: "test",
					PathStyle:       true,
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(b, convey.ShouldNotBeNil)
			})

			convey.Convey("And an unknown backend should fail", func() {
				_, err := buildBackend(ctx, config.StorageConfig{Backend: "ftp"})
				convey.So(errors.Is(err, storage.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When translating tracing settings", func() {
			cfg := config.New()
			cfg.Tracing.Enabled = true
			cfg.Tracing.Endpoint = "collector:4318"
			tc := tracingConfig(cfg)

			convey.So(tc.ServiceName, convey.ShouldEqual, serviceName)
			convey.So(tc.Enabled, convey.ShouldBeTrue)
			convey.So(tc.OTLPEndpoint, convey.ShouldEqual, "collector:4318")
			convey.So(tc.ExporterType, convey.ShouldEqual, "otlp-http")
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a service wired from default configuration", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		svc, closeFn, err := buildService(ctx, cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		defer closeFn()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		handler := newHandler(ctx, svc, logger.NewNop(), false)

		convey.Convey("When checking health", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When fetching the API description", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "/leaderboard:")
		})

		convey.Convey("When querying an empty store", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

			var body map[string]any
			convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)

			convey.Convey("Then an empty leaderboard should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(body["rankings"], convey.ShouldResemble, []any{})
				convey.So(body["view"], convey.ShouldEqual, "all")
			})
		})

		convey.Convey("When tracing is enabled", func() {
			traced := newHandler(ctx, svc, logger.NewNop(), true)
			w := httptest.NewRecorder()
			traced.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})

	convey.Convey("Given an unreachable cache", t, func() {
		cfg := config.New()
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = "127.0.0.1:1"

		convey.Convey("Then the service should still be built", func() {
			svc, closeFn, err := buildService(context.Background(), cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc, convey.ShouldNotBeNil)
			closeFn()
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then it should return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
