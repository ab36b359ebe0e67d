// Command server runs the order-analytics HTTP service: duplicate detection,
// IP grouping, single-order detection, and cache control over a configured
// order source.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderscope/internal/cache"
	cachemetrics "orderscope/internal/cache/metrics"
	"orderscope/internal/dedup"
	"orderscope/internal/detect/metrics"
	"orderscope/internal/detect/service"
	"orderscope/internal/engine"
	"orderscope/internal/notify"
	"orderscope/internal/orders"
	"orderscope/internal/platform/config"
	"orderscope/internal/platform/httpserver"
	"orderscope/internal/platform/logger"
	"orderscope/internal/platform/redis"
	"orderscope/internal/ratelimit"
	ratelimitmetrics "orderscope/internal/ratelimit/metrics"
	"orderscope/internal/runlog"
	runlogmetrics "orderscope/internal/runlog/metrics"
	httptransport "orderscope/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs both the cache layer and the rate limiter when configured;
	// otherwise everything runs in process memory.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	cacheLayer, err := buildCache(redisClient, log)
	if err != nil {
		return err
	}
	limiter, err := buildLimiter(redisClient, log)
	if err != nil {
		return err
	}
	recorder, cleanupRunlog, err := buildRecorder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanupRunlog()

	publisher, cleanupPublisher, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer cleanupPublisher()

	// The in-memory source serves local development; deployments point the
	// service at a real order platform adapter.
	source := orders.NewMemorySource(cfg.OrderSource.PageSize)

	eng, err := engine.New(source,
		engine.WithLogger(log),
		engine.WithCache(cacheLayer),
		engine.WithLimiter(limiter),
		engine.WithRecorder(recorder),
		engine.WithDetector(service.New(
			service.WithLogger(log),
			service.WithMetrics(metrics.New()),
		)),
		engine.WithCorrelator(dedup.NewCorrelator(
			dedup.WithLogger(log),
			dedup.WithPublisher(publisher),
		)),
		engine.WithWorkers(cfg.DetectionWorkers),
		engine.WithMaxWindowDays(cfg.MaxWindowDays),
		engine.WithCallTimeout(cfg.OrderSource.CallTimeout),
		engine.WithTTLs(engine.TTLs{
			Search: cfg.Cache.SearchTTL,
			Detail: cfg.Cache.DetailTTL,
			Probe:  cfg.Cache.ProbeTTL,
		}),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	router := httptransport.NewRouter(httptransport.New(eng, log), log)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildCache(redisClient *redis.Client, log *slog.Logger) (*cache.Layer, error) {
	var store cache.Store
	if redisClient != nil {
		redisStore, err := cache.NewRedisStore(redisClient.Client)
		if err != nil {
			return nil, err
		}
		store = redisStore
	} else {
		store = cache.NewMemoryStore()
	}
	return cache.NewLayer(store,
		cache.WithLogger(log),
		cache.WithMetrics(cachemetrics.New()),
	)
}

func buildLimiter(redisClient *redis.Client, log *slog.Logger) (*ratelimit.Limiter, error) {
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		redisStore, err := ratelimit.NewRedisStore(redisClient.Client)
		if err != nil {
			return nil, err
		}
		store = ratelimit.NewFallbackStore(redisStore, ratelimit.NewMemoryStore(), log)
	}
	return ratelimit.New(store,
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimitmetrics.New()),
	)
}

func buildRecorder(ctx context.Context, cfg config.Config, log *slog.Logger) (*runlog.Recorder, func(), error) {
	cleanup := func() {}
	var store runlog.Store = runlog.NewMemoryStore()

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		pgStore, err := runlog.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = pgStore
		cleanup = pool.Close
	}

	recorder := runlog.NewRecorder(store,
		runlog.WithLogger(log),
		runlog.WithMetrics(runlogmetrics.New()),
	)
	return recorder, cleanup, nil
}

func buildPublisher(cfg config.Config, log *slog.Logger) (notify.Publisher, func(), error) {
	if cfg.Kafka.Brokers == "" {
		return notify.Nop{}, func() {}, nil
	}

	brokers := strings.Split(cfg.Kafka.Brokers, ",")
	publisher, err := notify.NewKafkaPublisher(brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	cleanup := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Close(flushCtx); err != nil {
			log.Warn("kafka flush on shutdown failed", "error", err)
		}
	}
	return publisher, cleanup, nil
}
