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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/linkcart/storefront-core/api/routes"
	"github.com/linkcart/storefront-core/internal/analytics"
	"github.com/linkcart/storefront-core/internal/cart"
	"github.com/linkcart/storefront-core/internal/content"
	"github.com/linkcart/storefront-core/internal/coupons"
	"github.com/linkcart/storefront-core/internal/orders"
	product "github.com/linkcart/storefront-core/internal/products"
	"github.com/linkcart/storefront-core/internal/shortlinks"
	"github.com/linkcart/storefront-core/pkg/auth"
	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/idempotency"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
	"github.com/linkcart/storefront-core/pkg/migrate"
	"github.com/linkcart/storefront-core/pkg/pubsub"
	"github.com/linkcart/storefront-core/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	staffKeys, err := auth.NewKeys(cfg.JWT)
	requireResource(ctx, logg, "staff token keys", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	shortlinkMetrics := metrics.NewShortlinkMetrics(registry)

	productRepo := product.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	shortlinkRepo := shortlinks.NewRepository(dbClient.DB())
	contentRepo := content.NewRepository(dbClient.DB())

	guard, err := idempotency.NewGuard(redisClient, idempotency.DefaultLease)
	requireResource(ctx, logg, "idempotency guard", err)

	sessions, err := cart.NewSessionStore(redisClient, cfg.Cart.SessionTTL, logg)
	requireResource(ctx, logg, "cart session store", err)

	cartService, err := cart.NewService(sessions, productRepo, couponRepo, redisClient, cart.Options{
		CouponAttemptsPerMinute: cfg.Cart.CouponAttemptsPerMinute,
	}, logg)
	requireResource(ctx, logg, "cart service", err)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		orders.NewCouponUsage(couponRepo),
		cartService,
		productRepo,
		dbClient,
		logg,
		nil,
	)
	requireResource(ctx, logg, "orders service", err)

	couponService, err := coupons.NewService(couponRepo, productRepo)
	requireResource(ctx, logg, "coupon service", err)

	checker, err := shortlinks.NewChecker(
		shortlinks.DefaultLookups(cfg.Shortlinks.Reserved(), contentRepo, shortlinkRepo),
		shortlinks.CheckerOptions{
			LookupTimeout: cfg.Shortlinks.LookupTimeout,
			FailClosed:    cfg.FeatureFlags.CollisionFailClosed,
		},
		shortlinkMetrics,
		logg,
	)
	requireResource(ctx, logg, "collision checker", err)

	generator, err := shortlinks.NewGenerator(checker, nil, nil)
	requireResource(ctx, logg, "path generator", err)

	shortlinkService, err := shortlinks.NewService(shortlinkRepo, checker, generator, shortlinks.GeneratorOptions{
		BaseLength:  cfg.Shortlinks.BaseLength,
		MaxAttempts: cfg.Shortlinks.MaxAttempts,
	})
	requireResource(ctx, logg, "shortlink service", err)

	var publisher *pubsub.TopicPublisher
	if cfg.FeatureFlags.ClickEvents {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub client", err)
			}
		}()
		publisher, err = pubsubClient.ClicksPublisher(ctx)
		requireResource(ctx, logg, "clicks publisher", err)
		defer publisher.Stop()
	}

	recorder, err := newClickRecorder(shortlinkRepo, publisher, shortlinkMetrics)
	requireResource(ctx, logg, "click recorder", err)

	resolver, err := shortlinks.NewResolver(shortlinkRepo, recorder, shortlinks.ResolverOptions{
		RecordTimeout: cfg.Shortlinks.RecordTimeout,
	}, shortlinkMetrics, logg)
	requireResource(ctx, logg, "path resolver", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    id,
		"clickEvents": cfg.FeatureFlags.ClickEvents,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			staffKeys,
			dbClient,
			redisClient,
			guard,
			registry,
			httpMetrics,
			cartService,
			ordersService,
			couponService,
			shortlinkService,
			resolver,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// newClickRecorder keeps a nil publisher out of the recorder's interface.
func newClickRecorder(counter *shortlinks.Repository, publisher *pubsub.TopicPublisher, m *metrics.ShortlinkMetrics) (*analytics.ClickRecorder, error) {
	if publisher == nil {
		return analytics.NewClickRecorder(counter, nil, m)
	}
	return analytics.NewClickRecorder(counter, publisher, m)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
