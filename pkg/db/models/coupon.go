package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/pkg/enums"
)

// Coupon is a discount rule redeemable by code.
type Coupon struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string            `gorm:"column:code;not null"`
	Type        enums.CouponType  `gorm:"column:type;not null"`
	Value       decimal.Decimal   `gorm:"column:value;type:numeric(12,2);not null"`
	ApplyTo     enums.CouponScope `gorm:"column:apply_to;not null;default:'cart'"`
	ProductID   *uuid.UUID        `gorm:"column:product_id;type:uuid"`
	IsActive    bool              `gorm:"column:is_active;not null"`
	ExpiresAt   *time.Time        `gorm:"column:expires_at"`
	MaxUses     int               `gorm:"column:max_uses;not null;default:0"`
	UsedCount   int               `gorm:"column:used_count;not null;default:0"`
	MinPurchase decimal.Decimal   `gorm:"column:min_purchase;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Coupon) TableName() string { return "coupons" }
