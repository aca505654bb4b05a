package coupons

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/api/responses"
	"github.com/linkcart/storefront-core/api/validators"
	internalcoupons "github.com/linkcart/storefront-core/internal/coupons"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/pagination"
)

// List pages coupons newest first.
func List(svc internalcoupons.Service, logg *logger.Logger) http.HandlerFunc {
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

func Create(svc internalcoupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		input, ok := decodeInput(w, r, logg)
		if !ok {
			return
		}

		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func Detail(svc internalcoupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := couponIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func Update(svc internalcoupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := couponIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, ok := decodeInput(w, r, logg)
		if !ok {
			return
		}

		coupon, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func Delete(svc internalcoupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}
		id, err := couponIDParam(r)
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

func decodeInput(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (internalcoupons.CouponInput, bool) {
	var payload CouponRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return internalcoupons.CouponInput{}, false
	}
	input, err := payload.toInput()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return internalcoupons.CouponInput{}, false
	}
	return input, true
}

func serviceReady(w http.ResponseWriter, r *http.Request, svc internalcoupons.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
		return false
	}
	return true
}

func couponIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "couponId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon id")
	}
	return id, nil
}
