package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry a cart line snapshots its prices from.
type Product struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string           `gorm:"column:name;not null"`
	Slug            string           `gorm:"column:slug;not null"`
	Price           decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountedPrice *decimal.Decimal `gorm:"column:discounted_price;type:numeric(12,2)"`
	OnSale          bool             `gorm:"column:on_sale;not null;default:false"`
	IsActive        bool             `gorm:"column:is_active;not null"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
