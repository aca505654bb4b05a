package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
)

// CustomerInput carries the buyer details collected at checkout.
type CustomerInput struct {
	Name  string
	Email string
	Notes *string
}

type OrderLineDTO struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Status        enums.OrderStatus `json:"status"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CouponCode    *string           `json:"coupon_code,omitempty"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Discount      decimal.Decimal   `json:"discount"`
	Total         decimal.Decimal   `json:"total"`
	Lines         []OrderLineDTO    `json:"lines"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toDTO(o models.Order) OrderDTO {
	lines := make([]OrderLineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineDTO{
			ProductID:      l.ProductID,
			Name:           l.Name,
			UnitPrice:      l.UnitPrice,
			EffectivePrice: l.EffectivePrice,
			Quantity:       l.Quantity,
			LineTotal:      l.LineTotal,
		}
	}
	return OrderDTO{
		ID:            o.ID,
		Status:        o.Status,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CouponCode:    o.CouponCode,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Total:         o.Total,
		Lines:         lines,
		CreatedAt:     o.CreatedAt,
	}
}
