package middleware

import (
	"net/http"
	"strings"

	"github.com/linkcart/storefront-core/api/responses"
	"github.com/linkcart/storefront-core/pkg/auth"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

const bearerPrefix = "bearer "

// Auth admits requests carrying a valid staff bearer token and records the
// caller on the request context and the log context.
func Auth(keys *auth.Keys, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := keys.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, role := claims.UserID.String(), claims.Role.String()
			ctx := WithRole(WithUserID(r.Context(), userID), role)
			ctx = logg.WithActorRole(logg.WithUserID(ctx, userID), role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
