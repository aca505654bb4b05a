package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Coupon is the full rule as fetched from the coupon store.
type Coupon struct {
	ID          string
	Code        string
	Type        enums.CouponType
	Value       decimal.Decimal
	ApplyTo     enums.CouponScope
	ProductID   string
	IsActive    bool
	ExpiresAt   *time.Time
	MaxUses     int
	UsedCount   int
	MinPurchase decimal.Decimal
}

// AppliedCoupon is the snapshot a cart keeps for display and discount math
// without refetching the coupon.
type AppliedCoupon struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	Type      enums.CouponType  `json:"type"`
	Value     decimal.Decimal   `json:"value"`
	ApplyTo   enums.CouponScope `json:"apply_to"`
	ProductID string            `json:"product_id,omitempty"`
}

// CouponStatus describes how the applied coupon relates to the current lines.
type CouponStatus string

const (
	CouponStatusNone    CouponStatus = "none"
	CouponStatusApplied CouponStatus = "applied"
	// CouponStatusInapplicable means a product coupon whose product is no
	// longer in the cart; it contributes no discount.
	CouponStatusInapplicable CouponStatus = "inapplicable"
)

// Result is the outcome of applying a coupon. Rejections are expected user
// outcomes and carry a message suitable for inline display.
type Result struct {
	Success bool                  `json:"success"`
	Reason  enums.CouponRejection `json:"reason,omitempty"`
	Message string                `json:"message"`
}

func rejected(reason enums.CouponRejection, message string) Result {
	return Result{Reason: reason, Message: message}
}

// CheckCoupon evaluates the coupon rules against the cart at the given time.
// A nil coupon means no coupon matched the code.
func CheckCoupon(coupon *Coupon, cart *Cart, now time.Time) Result {
	switch {
	case coupon == nil:
		return rejected(enums.CouponRejectionInvalidCode, "Invalid coupon code")
	case !coupon.IsActive:
		return rejected(enums.CouponRejectionInactive, "This coupon is no longer active")
	case coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now):
		return rejected(enums.CouponRejectionExpired, "This coupon has expired")
	case coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses:
		return rejected(enums.CouponRejectionUsageLimitReached, "This coupon has reached its usage limit")
	case coupon.MinPurchase.IsPositive() && cart.Subtotal().LessThan(coupon.MinPurchase):
		return rejected(enums.CouponRejectionBelowMinimum,
			fmt.Sprintf("A minimum purchase of %s is required for this coupon", coupon.MinPurchase.StringFixed(2)))
	case coupon.ApplyTo == enums.CouponScopeProduct && cart.indexOf(coupon.ProductID) < 0:
		return rejected(enums.CouponRejectionProductNotInCart, "This coupon applies to a product that is not in your cart")
	}
	return Result{Success: true, Message: fmt.Sprintf("Coupon %s applied", coupon.Code)}
}

func (c *Coupon) snapshot() AppliedCoupon {
	applied := AppliedCoupon{
		ID:      c.ID,
		Code:    c.Code,
		Type:    c.Type,
		Value:   c.Value,
		ApplyTo: c.ApplyTo,
	}
	if c.ApplyTo == enums.CouponScopeProduct {
		applied.ProductID = c.ProductID
	}
	return applied
}

func (a *AppliedCoupon) targets(productID string) bool {
	return a.ApplyTo == enums.CouponScopeProduct && a.ProductID == productID
}

func (a *AppliedCoupon) discountFor(cart *Cart) decimal.Decimal {
	base := cart.Subtotal()
	if a.ApplyTo == enums.CouponScopeProduct {
		i := cart.indexOf(a.ProductID)
		if i < 0 {
			return decimal.Zero
		}
		base = cart.lines[i].Total()
	}
	return ComputeDiscount(a.Type, a.Value, base)
}

// ComputeDiscount applies a percent or fixed value to base. The result is
// rounded to cents and clamped to [0, base].
func ComputeDiscount(kind enums.CouponType, value, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch kind {
	case enums.CouponTypePercent:
		d = base.Mul(value).Div(hundred)
	case enums.CouponTypeFixed:
		d = value
	default:
		return decimal.Zero
	}
	d = d.Round(2)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(base) {
		return base
	}
	return d
}
