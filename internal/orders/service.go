package orders

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/internal/coupons"
	"github.com/linkcart/storefront-core/internal/pricing"
	product "github.com/linkcart/storefront-core/internal/products"
	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

// Service places orders from cart sessions.
type Service interface {
	Place(ctx context.Context, sessionID string, customer CustomerInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	coupons CouponUsage
	carts   cartSessions
	catalog catalog
	tx      txRunner
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires order placement. now may be nil.
func NewService(repo Repository, couponUsage CouponUsage, carts cartSessions, products catalog, tx txRunner, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if couponUsage == nil {
		return nil, fmt.Errorf("coupon usage required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, coupons: couponUsage, carts: carts, catalog: products, tx: tx, logg: logg, now: now}, nil
}

// Place turns the session cart into an order. Lines are repriced from the
// catalog first and the order is refused while the cart holds products that
// are gone or inactive. The applied coupon is checked again against its stored state and its usage is claimed in the same
// transaction as the order insert. The cart is cleared only after commit.
func (s *service) Place(ctx context.Context, sessionID string, customer CustomerInput) (*OrderDTO, error) {
	if err := validateCustomer(&customer); err != nil {
		return nil, err
	}
	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.reprice(ctx, cart); err != nil {
		return nil, err
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		couponRepo := s.coupons.WithTx(tx)

		var couponID *uuid.UUID
		if applied := cart.AppliedCoupon(); applied != nil {
			id, err := s.revalidateCoupon(ctx, couponRepo, cart, applied)
			if err != nil {
				return err
			}
			couponID = &id
		}

		order, err := buildOrder(sessionID, customer, cart, couponID)
		if err != nil {
			return err
		}
		if placed, err = s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if couponID != nil {
			ok, err := couponRepo.IncrementUsage(ctx, *couponID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim coupon usage")
			}
			if !ok {
				return couponRejected(pricing.Result{
					Reason:  enums.CouponRejectionUsageLimitReached,
					Message: "This coupon has reached its usage limit",
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": placed.ID.String(), "total": placed.Total.String()})
	s.logg.Info(logCtx, "order.placed")
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(logCtx, "order.cart_clear_failed", err)
	}

	dto := toDTO(*placed)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := toDTO(*order)
	return &dto, nil
}

// reprice replaces the add-time price snapshot of every line with the current
// catalog entry.
func (s *service) reprice(ctx context.Context, cart *pricing.Cart) error {
	unavailable := map[string]string{}
	for _, line := range cart.Lines() {
		id, err := uuid.Parse(line.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart line has invalid product id")
		}
		p, err := s.catalog.FindByID(ctx, id)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			unavailable[line.ID] = "not_found"
			continue
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		case !p.IsActive:
			unavailable[line.ID] = "inactive"
			continue
		}
		cart.Reprice(product.ToPricing(p))
	}
	if len(unavailable) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "some products in the cart are no longer available").WithDetails(unavailable)
	}
	return nil
}

// revalidateCoupon re-applies the stored coupon so the order uses its current values.
func (s *service) revalidateCoupon(ctx context.Context, repo CouponUsage, cart *pricing.Cart, applied *pricing.AppliedCoupon) (uuid.UUID, error) {
	id, err := uuid.Parse(applied.ID)
	if err != nil {
		return uuid.Nil, couponRejected(pricing.Result{Reason: enums.CouponRejectionInvalidCode, Message: "Invalid coupon code"})
	}
	stored, err := repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if res := cart.ApplyCoupon(coupons.ToPricing(stored), s.now()); !res.Success {
		return uuid.Nil, couponRejected(res)
	}
	return id, nil
}

func buildOrder(sessionID string, customer CustomerInput, cart *pricing.Cart, couponID *uuid.UUID) (*models.Order, error) {
	order := &models.Order{
		CartSessionID: sessionID,
		Status:        enums.OrderStatusPlaced,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Notes:         customer.Notes,
		CouponID:      couponID,
		Subtotal:      cart.Subtotal(),
		Discount:      cart.Discount(),
		Total:         cart.Total(),
	}
	if applied := cart.AppliedCoupon(); applied != nil && couponID != nil {
		code := applied.Code
		order.CouponCode = &code
	}
	for _, line := range cart.Lines() {
		productID, err := uuid.Parse(line.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart line has invalid product id")
		}
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:      productID,
			Name:           line.Name,
			UnitPrice:      line.UnitPrice,
			EffectivePrice: line.EffectivePrice(),
			Quantity:       line.Quantity,
			LineTotal:      line.Total(),
		})
	}
	return order, nil
}

func couponRejected(res pricing.Result) error {
	return pkgerrors.New(pkgerrors.CodeValidation, res.Message).WithDetails(map[string]string{
		"reason": res.Reason.String(),
	})
}

func validateCustomer(c *CustomerInput) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	problems := map[string]string{}
	if c.Name == "" {
		problems["name"] = "name is required"
	}
	if _, err := mail.ParseAddress(c.Email); err != nil || c.Email == "" {
		problems["email"] = "a valid email is required"
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer details").WithDetails(problems)
	}
	return nil
}
