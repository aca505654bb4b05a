package shortlinks

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/api/responses"
	"github.com/linkcart/storefront-core/api/validators"
	internalshortlinks "github.com/linkcart/storefront-core/internal/shortlinks"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/pagination"
)

func List(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Create claims the requested path, or a generated one when path is empty.
// A taken path answers 409 with the owning namespace in the details.
func Create(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		var payload ShortlinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

func Detail(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := shortlinkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}

func Update(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := shortlinkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload ShortlinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}

func Delete(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := shortlinkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String(), "status": "deleted"})
	}
}

// CheckPath always answers 200: format violations and collisions are part of
// the result, not errors.
func CheckPath(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		var payload CheckPathRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		excludeID, err := payload.excludeID()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		check, err := svc.CheckPath(r.Context(), payload.Path, excludeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, check)
	}
}

func GeneratePath(svc internalshortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		path, err := svc.GeneratePath(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"path": path})
	}
}

func serviceReady(w http.ResponseWriter, r *http.Request, svc internalshortlinks.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shortlink service unavailable"))
		return false
	}
	return true
}

func shortlinkIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "shortlinkId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shortlink id")
	}
	return id, nil
}
