package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/api/validators"
	internalcoupons "github.com/linkcart/storefront-core/internal/coupons"
	"github.com/linkcart/storefront-core/pkg/enums"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
)

// CouponRequest is the full writable state of a coupon; PUT replaces every field.
type CouponRequest struct {
	Code        string           `json:"code" validate:"required,max=64"`
	Type        string           `json:"type" validate:"required,oneof=percent fixed"`
	Value       decimal.Decimal  `json:"value" validate:"gt=0"`
	ApplyTo     string           `json:"apply_to" validate:"required,oneof=cart product"`
	ProductID   *string          `json:"product_id,omitempty" validate:"omitempty,uuid"`
	IsActive    *bool            `json:"is_active,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	MaxUses     int              `json:"max_uses" validate:"gte=0"`
	MinPurchase *decimal.Decimal `json:"min_purchase,omitempty" validate:"omitempty,gte=0"`
}

func (req CouponRequest) toInput() (internalcoupons.CouponInput, error) {
	couponType, err := enums.ParseCouponType(req.Type)
	if err != nil {
		return internalcoupons.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type")
	}
	scope, err := enums.ParseCouponScope(req.ApplyTo)
	if err != nil {
		return internalcoupons.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon scope")
	}

	input := internalcoupons.CouponInput{
		Code:        validators.SanitizeString(req.Code, 64),
		Type:        couponType,
		Value:       req.Value,
		ApplyTo:     scope,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		MaxUses:     req.MaxUses,
		MinPurchase: decimal.Zero,
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	if req.MinPurchase != nil {
		input.MinPurchase = *req.MinPurchase
	}
	if req.ProductID != nil {
		id, err := uuid.Parse(*req.ProductID)
		if err != nil {
			return internalcoupons.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		input.ProductID = &id
	}
	return input, nil
}
