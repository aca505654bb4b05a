package pricing

// Snapshot is the serialized cart state kept in the session store.
type Snapshot struct {
	Lines  []Line         `json:"lines"`
	Coupon *AppliedCoupon `json:"coupon,omitempty"`
}

// Snapshot captures the cart for persistence.
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Lines:  c.Lines(),
		Coupon: c.AppliedCoupon(),
	}
}

// Restore rebuilds a cart from a persisted snapshot. Lines sharing an ID are
// merged, lines with a quantity below one or without an ID are dropped, and
// quantities are capped at MaxLineQuantity. The
// coupon snapshot is kept as is; a product coupon whose product is gone
// reports CouponStatusInapplicable and discounts nothing.
func Restore(s Snapshot) *Cart {
	cart := NewCart()
	for _, l := range s.Lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		if i := cart.indexOf(l.ID); i >= 0 {
			cart.lines[i].Quantity = addQuantity(cart.lines[i].Quantity, l.Quantity)
			continue
		}
		l.Quantity = clampQuantity(l.Quantity)
		l.DiscountedUnitPrice = copyDecimal(l.DiscountedUnitPrice)
		cart.lines = append(cart.lines, l)
	}
	if s.Coupon != nil {
		applied := *s.Coupon
		cart.applied = &applied
	}
	return cart
}
