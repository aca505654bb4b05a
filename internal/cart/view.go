package cart

import (
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/internal/pricing"
)

// LineView is a cart line with its derived prices.
type LineView struct {
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name,omitempty"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	OnSale              bool             `json:"on_sale"`
	EffectivePrice      decimal.Decimal  `json:"effective_price"`
	Quantity            int              `json:"quantity"`
	LineTotal           decimal.Decimal  `json:"line_total"`
}

// View is the cart as returned to the storefront.
type View struct {
	SessionID    string                 `json:"session_id"`
	Lines        []LineView             `json:"lines"`
	Count        int                    `json:"count"`
	Subtotal     decimal.Decimal        `json:"subtotal"`
	Discount     decimal.Decimal        `json:"discount"`
	Total        decimal.Decimal        `json:"total"`
	Coupon       *pricing.AppliedCoupon `json:"coupon,omitempty"`
	CouponStatus pricing.CouponStatus   `json:"coupon_status"`
}

// ApplyResult reports a coupon attempt together with the resulting cart.
type ApplyResult struct {
	pricing.Result
	Cart *View `json:"cart"`
}

// NewView renders the cart's current derived state.
func NewView(sessionID string, c *pricing.Cart) *View {
	lines := c.Lines()
	out := make([]LineView, len(lines))
	for i, l := range lines {
		out[i] = LineView{
			ProductID:           l.ID,
			Name:                l.Name,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			OnSale:              l.OnSale,
			EffectivePrice:      l.EffectivePrice(),
			Quantity:            l.Quantity,
			LineTotal:           l.Total(),
		}
	}
	return &View{
		SessionID:    sessionID,
		Lines:        out,
		Count:        c.Count(),
		Subtotal:     c.Subtotal(),
		Discount:     c.Discount(),
		Total:        c.Total(),
		Coupon:       c.AppliedCoupon(),
		CouponStatus: c.CouponStatus(),
	}
}
