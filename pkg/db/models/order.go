package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/pkg/enums"
)

// Order is the immutable record of a placed cart.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartSessionID string            `gorm:"column:cart_session_id;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null"`
	Notes         *string           `gorm:"column:notes"`
	CouponID      *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CouponCode    *string           `gorm:"column:coupon_code"`
	Subtotal      decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount      decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Lines         []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLine snapshots one cart line at placement time.
type OrderLine struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	EffectivePrice decimal.Decimal `gorm:"column:effective_price;type:numeric(12,2);not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }
