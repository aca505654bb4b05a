package shortlinks

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linkcart/storefront-core/api/middleware"
	"github.com/linkcart/storefront-core/api/responses"
	internalshortlinks "github.com/linkcart/storefront-core/internal/shortlinks"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

type pathResolver interface {
	Resolve(ctx context.Context, path string, visit internalshortlinks.Visit) (internalshortlinks.Resolution, error)
}

// Redirect serves the catch-all route: an active shortlink answers 302 to its
// destination, every other outcome is a 404 envelope.
func Redirect(resolver pathResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "resolver unavailable"))
			return
		}

		path := chi.URLParam(r, "*")
		if path == "" {
			path = strings.TrimPrefix(r.URL.Path, "/")
		}

		res, err := resolver.Resolve(r.Context(), path, internalshortlinks.Visit{
			Referrer:  r.Referer(),
			UserAgent: r.UserAgent(),
			IPAddress: middleware.ClientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve shortlink"))
			return
		}
		if !res.Redirect() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "page not found"))
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, res.DestinationURL, http.StatusFound)
	}
}
