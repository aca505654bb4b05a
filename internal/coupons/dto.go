package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
)

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	Type        enums.CouponType  `json:"type"`
	Value       decimal.Decimal   `json:"value"`
	ApplyTo     enums.CouponScope `json:"apply_to"`
	ProductID   *uuid.UUID        `json:"product_id,omitempty"`
	IsActive    bool              `json:"is_active"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	MaxUses     int               `json:"max_uses"`
	UsedCount   int               `json:"used_count"`
	MinPurchase decimal.Decimal   `json:"min_purchase"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type ListResult struct {
	Items  []CouponDTO `json:"items"`
	Cursor string      `json:"cursor"`
}

func toDTO(m models.Coupon) CouponDTO {
	return CouponDTO{
		ID:          m.ID,
		Code:        m.Code,
		Type:        m.Type,
		Value:       m.Value,
		ApplyTo:     m.ApplyTo,
		ProductID:   m.ProductID,
		IsActive:    m.IsActive,
		ExpiresAt:   m.ExpiresAt,
		MaxUses:     m.MaxUses,
		UsedCount:   m.UsedCount,
		MinPurchase: m.MinPurchase,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToPricing converts a stored coupon into the rule the pricing engine evaluates.
// A nil coupon stays nil so a missing code is reported as invalid.
func ToPricing(m *models.Coupon) *pricing.Coupon {
	if m == nil {
		return nil
	}
	c := &pricing.Coupon{
		ID:          m.ID.String(),
		Code:        m.Code,
		Type:        m.Type,
		Value:       m.Value,
		ApplyTo:     m.ApplyTo,
		IsActive:    m.IsActive,
		ExpiresAt:   m.ExpiresAt,
		MaxUses:     m.MaxUses,
		UsedCount:   m.UsedCount,
		MinPurchase: m.MinPurchase,
	}
	if m.ProductID != nil {
		c.ProductID = m.ProductID.String()
	}
	return c
}
