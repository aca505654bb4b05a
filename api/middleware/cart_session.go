package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/pkg/logger"
)

// DefaultCartSessionHeader carries the opaque cart session id.
const DefaultCartSessionHeader = "X-Cart-Session"

// CartSession reads the cart session id from header, minting a new one when the
// client did not send a usable value, and echoes it on the response.
func CartSession(header string, logg *logger.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultCartSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(header))
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}

			w.Header().Set(header, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
