package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/okian/evalboard/internal/adapters/cache"
	"github.com/okian/evalboard/internal/adapters/http/api"
	"github.com/okian/evalboard/internal/adapters/http/swagger"
	"github.com/okian/evalboard/internal/adapters/storage"
	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/config"
	"github.com/okian/evalboard/internal/domain/ranking"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
	"github.com/okian/evalboard/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	serviceName               = "evalboard"
)

var version = "dev"

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("evalboard: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tp, err := tracing.NewProvider(ctx, tracingConfig(cfg))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	svc, closeFn, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, log, tp.Enabled()),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.Storage.Backend),
			logger.Bool("tracing", tp.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService wires storage, the optional cache and the query service. The
// returned func releases whatever was opened.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, func(), error) {
	backend, err := buildBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	store, err := storage.NewStore(backend,
		storage.WithPrefix(cfg.Storage.Prefix),
		storage.WithFetchTimeout(cfg.Storage.FetchTimeout),
		storage.WithFetchConcurrency(cfg.Storage.FetchConcurrency),
		storage.WithLogger(log.Named("storage")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	opts := []service.Option{
		service.WithSource(store),
		service.WithLogger(log.Named("service")),
		service.WithDefaultLimit(cfg.Leaderboard.DefaultLimit),
		service.WithMaxLimit(cfg.Leaderboard.MaxLimit),
		service.WithView(ranking.View(cfg.Leaderboard.View)),
		service.WithRecentWindow(cfg.Leaderboard.RecentWindow),
	}

	closeFn := func() {}
	if cfg.Cache.Enabled {
		c, err := cache.New(ctx,
			cache.WithAddress(cfg.Cache.Addr),
			cache.WithPassword(cfg.Cache.Password),
			cache.WithDB(cfg.Cache.DB),
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithLogger(log.Named("cache")),
		)
		if err != nil {
			// Serve uncached when redis is unreachable.
			log.Warn(ctx, "snapshot cache disabled", logger.String("addr", cfg.Cache.Addr), logger.Error(err))
		} else {
			opts = append(opts, service.WithCache(c))
			closeFn = func() { _ = c.Close() }
		}
	}

	return service.New(opts...), closeFn, nil
}

// buildBackend returns the object store named by cfg.Backend.
func buildBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryBackend(cfg.Prefix), nil
	case config.BackendS3:
		return storage.NewS3Backend(ctx, storage.S3Config{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", storage.ErrInvalidConfig, cfg.Backend)
	}
}

// newHandler registers the API and docs routes and, when tracing is on,
// wraps the mux so incoming requests start a server span.
func newHandler(ctx context.Context, svc *service.Service, log logger.Logger, traced bool) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithLogger(log.Named("api"))).Register(ctx, mux)
	if !traced {
		return mux
	}
	return otelhttp.NewHandler(mux, serviceName)
}

func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Enabled:        cfg.Tracing.Enabled,
		ExporterType:   cfg.Tracing.Exporter,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Insecure:       cfg.Tracing.Insecure,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
