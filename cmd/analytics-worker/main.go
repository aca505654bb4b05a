package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkcart/storefront-core/api/controllers"
	"github.com/linkcart/storefront-core/internal/analytics"
	"github.com/linkcart/storefront-core/internal/analytics/worker"
	"github.com/linkcart/storefront-core/internal/analytics/writer"
	"github.com/linkcart/storefront-core/pkg/bigquery"
	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/idempotency"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
	"github.com/linkcart/storefront-core/pkg/pubsub"
	"github.com/linkcart/storefront-core/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, []bigquery.TableSpec{
		analytics.ClicksTableSpec(cfg.BigQuery.ClicksTable),
	}, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	subscription, err := pubsubClient.ClicksSubscription(ctx)
	requireResource(ctx, logg, "clicks subscription", err)

	events, err := idempotency.NewEvents(redisClient, cfg.Eventing.ClaimLease, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "event idempotency", err)

	clicksWriter, err := writer.New(bqClient, writer.Config{ClicksTable: cfg.BigQuery.ClicksTable})
	requireResource(ctx, logg, "clicks bigquery writer", err)

	registry := prometheus.NewRegistry()
	consumerMetrics := metrics.NewClickConsumerMetrics(registry)

	service, err := worker.NewService(subscription, worker.HandlerFunc(clicksWriter.WriteClick), events, consumerMetrics, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	mux := chi.NewRouter()
	mux.Get("/health/live", controllers.HealthLive(cfg))
	mux.Get("/health/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
		"redis":    redisClient,
		"pubsub":   pubsubClient,
		"bigquery": bqClient,
	}, logg))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
		os.Exit(1)
	}

	logg.Info(context.Background(), "analytics worker stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
