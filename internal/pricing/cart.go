package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/pkg/enums"
)

// MaxLineQuantity caps the units a single line can hold. Additions past it
// saturate.
const MaxLineQuantity = 999

// Product is the catalog snapshot a cart line is created from.
type Product struct {
	ID                  string
	Name                string
	UnitPrice           decimal.Decimal
	DiscountedUnitPrice *decimal.Decimal
	OnSale              bool
}

// Line is one product entry in the cart. At most one Line exists per ID.
type Line struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name,omitempty"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	OnSale              bool             `json:"on_sale"`
	Quantity            int              `json:"quantity"`
}

// EffectivePrice is the sale price when the line is on sale and has one, the unit price otherwise.
func (l Line) EffectivePrice() decimal.Decimal {
	if l.OnSale && l.DiscountedUnitPrice != nil {
		return *l.DiscountedUnitPrice
	}
	return l.UnitPrice
}

// Total returns quantity times the effective price.
func (l Line) Total() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart owns the lines of one shopping session and at most one applied coupon.
// Subtotal, Discount and Total are recomputed from the lines on every call.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines   []Line
	applied *AppliedCoupon
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine inserts the product or increases the quantity of its existing line.
// Quantities below one are coerced to one and the line never holds more than
// MaxLineQuantity units. Products without an ID are ignored.
func (c *Cart) AddLine(p Product, qty int) {
	if p.ID == "" {
		return
	}
	qty = clampQuantity(qty)
	if i := c.indexOf(p.ID); i >= 0 {
		c.lines[i].Quantity = addQuantity(c.lines[i].Quantity, qty)
		return
	}
	c.lines = append(c.lines, Line{
		ID:                  p.ID,
		Name:                p.Name,
		UnitPrice:           p.UnitPrice,
		DiscountedUnitPrice: copyDecimal(p.DiscountedUnitPrice),
		OnSale:              p.OnSale,
		Quantity:            qty,
	})
}

// RemoveLine deletes the line and un-applies a product coupon targeting it.
// It reports whether a line was removed.
func (c *Cart) RemoveLine(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if c.applied != nil && c.applied.targets(id) {
		c.applied = nil
	}
	return true
}

// SetQuantity overwrites the quantity of a line; qty < 1 removes it and values
// above MaxLineQuantity are capped.
func (c *Cart) SetQuantity(id string, qty int) bool {
	if qty < 1 {
		return c.RemoveLine(id)
	}
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity = clampQuantity(qty)
	return true
}

// Reprice refreshes the catalog fields of the line for p.ID, keeping its
// quantity. It reports whether the line exists.
func (c *Cart) Reprice(p Product) bool {
	i := c.indexOf(p.ID)
	if i < 0 {
		return false
	}
	l := &c.lines[i]
	l.Name = p.Name
	l.UnitPrice = p.UnitPrice
	l.DiscountedUnitPrice = copyDecimal(p.DiscountedUnitPrice)
	l.OnSale = p.OnSale
	return true
}

// Clear empties the cart and un-applies the coupon.
func (c *Cart) Clear() {
	c.lines = nil
	c.applied = nil
}

// ApplyCoupon validates the coupon against the current cart and, on success,
// replaces any previously applied coupon. Rejections leave the cart untouched.
func (c *Cart) ApplyCoupon(coupon *Coupon, now time.Time) Result {
	res := CheckCoupon(coupon, c, now)
	if !res.Success {
		return res
	}
	applied := coupon.snapshot()
	c.applied = &applied
	return res
}

// RemoveCoupon clears the applied coupon. Safe to call when none is applied.
func (c *Cart) RemoveCoupon() {
	c.applied = nil
}

// AppliedCoupon returns a copy of the applied coupon snapshot, or nil.
func (c *Cart) AppliedCoupon() *AppliedCoupon {
	if c.applied == nil {
		return nil
	}
	cp := *c.applied
	return &cp
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line looks up a line by product ID.
func (c *Cart) Line(id string) (Line, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal is the sum of every line total before any coupon.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Discount is the amount taken off by the applied coupon. It is never
// negative and never exceeds the amount the coupon is scoped to.
func (c *Cart) Discount() decimal.Decimal {
	if c.applied == nil {
		return decimal.Zero
	}
	return c.applied.discountFor(c)
}

// Total is max(0, Subtotal - Discount).
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Sub(c.Discount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// CouponStatus reports whether the applied coupon currently contributes.
func (c *Cart) CouponStatus() CouponStatus {
	switch {
	case c.applied == nil:
		return CouponStatusNone
	case c.applied.ApplyTo == enums.CouponScopeProduct && c.indexOf(c.applied.ProductID) < 0:
		return CouponStatusInapplicable
	default:
		return CouponStatusApplied
	}
}

func (c *Cart) indexOf(id string) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func clampQuantity(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > MaxLineQuantity:
		return MaxLineQuantity
	}
	return qty
}

// addQuantity adds two clamped quantities without leaving [1, MaxLineQuantity].
func addQuantity(have, more int) int {
	return clampQuantity(clampQuantity(have) + clampQuantity(more))
}
