package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that applies the storefront and admin origin policy.
// The cart session header is both accepted and exposed so browsers can persist it.
func CORS(allowedOrigins []string, sessionHeader string) func(http.Handler) http.Handler {
	if sessionHeader == "" {
		sessionHeader = DefaultCartSessionHeader
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionHeader, "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{sessionHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
