package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkcart/storefront-core/api/controllers"
	cartcontrollers "github.com/linkcart/storefront-core/api/controllers/cart"
	couponcontrollers "github.com/linkcart/storefront-core/api/controllers/coupons"
	ordercontrollers "github.com/linkcart/storefront-core/api/controllers/orders"
	shortlinkcontrollers "github.com/linkcart/storefront-core/api/controllers/shortlinks"
	"github.com/linkcart/storefront-core/api/middleware"
	"github.com/linkcart/storefront-core/internal/cart"
	"github.com/linkcart/storefront-core/internal/coupons"
	"github.com/linkcart/storefront-core/internal/orders"
	"github.com/linkcart/storefront-core/internal/shortlinks"
	"github.com/linkcart/storefront-core/pkg/auth"
	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/enums"
	"github.com/linkcart/storefront-core/pkg/idempotency"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
	"github.com/linkcart/storefront-core/pkg/redis"
)

type pathResolver interface {
	Resolve(ctx context.Context, path string, visit shortlinks.Visit) (shortlinks.Resolution, error)
}

// NewRouter wires the storefront, admin and redirect surfaces. redisClient and
// guard may be nil, in which case per-IP throttling and idempotency replay are
// skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	staffKeys *auth.Keys,
	dbP db.Pinger,
	redisClient *redis.Client,
	guard *idempotency.Guard,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	cartService cart.Service,
	ordersService orders.Service,
	couponService coupons.Service,
	shortlinkService shortlinks.Service,
	resolver pathResolver,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.AllowedOrigins, cfg.Cart.SessionHeader),
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	couponThrottle := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		readiness["redis"] = redisClient
		couponThrottle = middleware.RateLimit(
			middleware.RateLimitPolicy{Name: "coupon", Window: time.Minute, Limit: cfg.Cart.CouponAttemptsPerIPPerMinute},
			redisClient,
			logg,
		)
	}

	idempotent := middleware.Idempotency(guard, middleware.IdempotencyTTL, logg)
	// placing an order consumes coupon usage and clears the cart
	idempotentOrder := middleware.Idempotency(guard, middleware.OrderIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.Cart.SessionHeader, logg))

		r.Get("/cart", cartcontrollers.CartFetch(cartService, logg))
		r.Delete("/cart", cartcontrollers.CartClear(cartService, logg))
		r.Post("/cart/items", cartcontrollers.CartAddItem(cartService, logg))
		r.Patch("/cart/items/{productId}", cartcontrollers.CartUpdateItem(cartService, logg))
		r.Delete("/cart/items/{productId}", cartcontrollers.CartRemoveItem(cartService, logg))
		r.With(couponThrottle).Post("/cart/coupon", cartcontrollers.CouponApply(cartService, logg))
		r.Delete("/cart/coupon", cartcontrollers.CouponRemove(cartService, logg))

		r.With(idempotentOrder).Post("/orders", ordercontrollers.Place(ordersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(staffKeys, logg))

		r.With(middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleSupport)).
			Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin))

			r.Get("/coupons", couponcontrollers.List(couponService, logg))
			r.With(idempotent).Post("/coupons", couponcontrollers.Create(couponService, logg))
			r.Get("/coupons/{couponId}", couponcontrollers.Detail(couponService, logg))
			r.Put("/coupons/{couponId}", couponcontrollers.Update(couponService, logg))
			r.Delete("/coupons/{couponId}", couponcontrollers.Delete(couponService, logg))

			r.Get("/shortlinks", shortlinkcontrollers.List(shortlinkService, logg))
			r.With(idempotent).Post("/shortlinks", shortlinkcontrollers.Create(shortlinkService, logg))
			r.Post("/shortlinks/check", shortlinkcontrollers.CheckPath(shortlinkService, logg))
			r.Post("/shortlinks/generate", shortlinkcontrollers.GeneratePath(shortlinkService, logg))
			r.Get("/shortlinks/{shortlinkId}", shortlinkcontrollers.Detail(shortlinkService, logg))
			r.Put("/shortlinks/{shortlinkId}", shortlinkcontrollers.Update(shortlinkService, logg))
			r.Delete("/shortlinks/{shortlinkId}", shortlinkcontrollers.Delete(shortlinkService, logg))
		})
	})

	// Everything else is a candidate short path.
	r.Get("/*", shortlinkcontrollers.Redirect(resolver, logg))

	return r
}
