package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linkcart/storefront-core/api/responses"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per client IP within a fixed window. A zero
// Limit or Window turns the policy off.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limit  int
}

func (p RateLimitPolicy) scope(ip string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "default"
	}
	return "ip:" + name + ":" + ip
}

// RateLimit throttles by client IP. The cart service also caps coupon attempts
// per session; this stops a client that rotates sessions. When the counter
// store fails the request is let through.
func RateLimit(policy RateLimitPolicy, store rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if policy.Window <= 0 || policy.Limit <= 0 || store == nil {
			return next
		}
		retryAfter := strconv.Itoa(int(policy.Window.Round(time.Second).Seconds()))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := ClientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.Limit), policy.Window)
			switch {
			case err != nil:
				logg.Warn(logg.WithFields(ctx, map[string]any{"policy": policy.Name, "error": err.Error()}), "rate_limit.store_unavailable")
			case !allowed:
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"policy": policy.Name,
					"ip":     ip,
					"count":  count,
					"limit":  policy.Limit,
				}), "rate_limit.blocked")
				w.Header().Set("Retry-After", retryAfter)
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address. The service runs behind a load balancer that sets both.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
