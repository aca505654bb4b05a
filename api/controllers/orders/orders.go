package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/api/middleware"
	"github.com/linkcart/storefront-core/api/responses"
	"github.com/linkcart/storefront-core/api/validators"
	internalorders "github.com/linkcart/storefront-core/internal/orders"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

type PlaceOrderRequest struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Email string  `json:"email" validate:"required,email"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Place turns the session cart into an order.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sessionID := middleware.CartSessionFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), sessionID, internalorders.CustomerInput{
			Name:  validators.SanitizeString(payload.Name, 120),
			Email: strings.TrimSpace(payload.Email),
			Notes: payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns a placed order for back-office staff.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
