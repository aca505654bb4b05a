package pricing

import (
	"strings"
	"testing"
	"time"

	"github.com/linkcart/storefront-core/pkg/enums"
)

func TestCheckCouponRules(t *testing.T) {
	past := testNow.Add(-time.Minute)
	future := testNow.Add(24 * time.Hour)

	cart := NewCart()
	cart.AddLine(product("A", "20"), 2)

	tests := []struct {
		name   string
		coupon func() *Coupon
		want   enums.CouponRejection
		ok     bool
	}{
		{name: "missing coupon", coupon: func() *Coupon { return nil }, want: enums.CouponRejectionInvalidCode},
		{name: "inactive", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.IsActive = false
			return c
		}, want: enums.CouponRejectionInactive},
		{name: "inactive wins over expired", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.IsActive = false
			c.ExpiresAt = &past
			return c
		}, want: enums.CouponRejectionInactive},
		{name: "expired", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.ExpiresAt = &past
			return c
		}, want: enums.CouponRejectionExpired},
		{name: "expires later", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.ExpiresAt = &future
			return c
		}, ok: true},
		{name: "usage limit reached", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.MaxUses, c.UsedCount = 3, 3
			return c
		}, want: enums.CouponRejectionUsageLimitReached},
		{name: "unlimited uses", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.MaxUses, c.UsedCount = 0, 1000
			return c
		}, ok: true},
		{name: "below minimum", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.MinPurchase = dec("40.01")
			return c
		}, want: enums.CouponRejectionBelowMinimum},
		{name: "exactly minimum", coupon: func() *Coupon {
			c := cartCoupon(enums.CouponTypeFixed, "5")
			c.MinPurchase = dec("40")
			return c
		}, ok: true},
		{name: "below minimum wins over missing product", coupon: func() *Coupon {
			c := productCoupon(enums.CouponTypeFixed, "5", "Z")
			c.MinPurchase = dec("100")
			return c
		}, want: enums.CouponRejectionBelowMinimum},
		{name: "product not in cart", coupon: func() *Coupon {
			return productCoupon(enums.CouponTypeFixed, "5", "Z")
		}, want: enums.CouponRejectionProductNotInCart},
		{name: "product in cart", coupon: func() *Coupon {
			return productCoupon(enums.CouponTypeFixed, "5", "A")
		}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckCoupon(tt.coupon(), cart, testNow)
			if res.Success != tt.ok {
				t.Fatalf("expected success=%v, got %+v", tt.ok, res)
			}
			if res.Reason != tt.want {
				t.Fatalf("expected reason %q, got %q", tt.want, res.Reason)
			}
			if res.Message == "" {
				t.Fatalf("result must always carry a message")
			}
		})
	}
}

func TestBelowMinimumMessageNamesAmount(t *testing.T) {
	c := cartCoupon(enums.CouponTypeFixed, "5")
	c.MinPurchase = dec("25")

	res := CheckCoupon(c, NewCart(), testNow)
	if !strings.Contains(res.Message, "25.00") {
		t.Fatalf("expected minimum in message, got %q", res.Message)
	}
}

func TestCartCouponSnapshotDropsProductID(t *testing.T) {
	c := cartCoupon(enums.CouponTypeFixed, "5")
	c.ProductID = "A"

	cart := NewCart()
	cart.AddLine(product("A", "10"), 1)
	if res := cart.ApplyCoupon(c, testNow); !res.Success {
		t.Fatalf("unexpected rejection %+v", res)
	}
	if got := cart.AppliedCoupon().ProductID; got != "" {
		t.Fatalf("cart coupon should not keep a product target, got %q", got)
	}
	if !cart.RemoveLine("A") || cart.AppliedCoupon() == nil {
		t.Fatalf("cart coupon must survive line removal")
	}
}
