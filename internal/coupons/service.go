package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/pagination"
)

var maxPercent = decimal.NewFromInt(100)

type couponStore interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes coupon administration.
type Service interface {
	Create(ctx context.Context, input CouponInput) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
}

// CouponInput is the full writable state of a coupon.
type CouponInput struct {
	Code        string
	Type        enums.CouponType
	Value       decimal.Decimal
	ApplyTo     enums.CouponScope
	ProductID   *uuid.UUID
	IsActive    bool
	ExpiresAt   *time.Time
	MaxUses     int
	MinPurchase decimal.Decimal
}

type service struct {
	repo     couponStore
	products productLookup
}

// NewService builds the coupon admin service.
func NewService(repo couponStore, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Create(ctx context.Context, input CouponInput) (*CouponDTO, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, input.Code, uuid.Nil); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{}
	applyInput(coupon, input)
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeTaken(input.Code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	dto := toDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*CouponDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, input.Code, id); err != nil {
		return nil, err
	}

	applyInput(existing, input)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeTaken(input.Code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	dto := toDTO(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	rows, next := pagination.Page(rows, params.Limit, func(c models.Coupon) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})

	items := make([]CouponDTO, len(rows))
	for i, row := range rows {
		items[i] = toDTO(row)
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) validate(ctx context.Context, input *CouponInput) error {
	input.Code = NormalizeCode(input.Code)
	if input.ApplyTo == "" {
		input.ApplyTo = enums.CouponScopeCart
	}

	problems := map[string]string{}
	if input.Code == "" {
		problems["code"] = "code is required"
	}
	switch input.Type {
	case enums.CouponTypePercent:
		if !input.Value.IsPositive() || input.Value.GreaterThan(maxPercent) {
			problems["value"] = "percent value must be greater than 0 and at most 100"
		}
	case enums.CouponTypeFixed:
		if !input.Value.IsPositive() {
			problems["value"] = "fixed value must be greater than 0"
		}
	default:
		problems["type"] = "type must be percent or fixed"
	}
	switch input.ApplyTo {
	case enums.CouponScopeCart:
		input.ProductID = nil
	case enums.CouponScopeProduct:
		if input.ProductID == nil || *input.ProductID == uuid.Nil {
			problems["product_id"] = "product coupons require a product id"
		}
	default:
		problems["apply_to"] = "apply_to must be cart or product"
	}
	if input.MinPurchase.IsNegative() {
		problems["min_purchase"] = "min_purchase cannot be negative"
	}
	if input.MaxUses < 0 {
		problems["max_uses"] = "max_uses cannot be negative"
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon").WithDetails(problems)
	}

	if input.ApplyTo == enums.CouponScopeProduct {
		if _, err := s.products.FindByID(ctx, *input.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon").WithDetails(map[string]string{
					"product_id": "product does not exist",
				})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon product")
		}
	}
	return nil
}

func (s *service) ensureCodeFree(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	case existing.ID == self:
		return nil
	default:
		return codeTaken(code)
	}
}

func codeTaken(code string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists").WithDetails(map[string]string{
		"code": code,
	})
}

func applyInput(coupon *models.Coupon, input CouponInput) {
	coupon.Code = input.Code
	coupon.Type = input.Type
	coupon.Value = input.Value
	coupon.ApplyTo = input.ApplyTo
	coupon.ProductID = input.ProductID
	coupon.IsActive = input.IsActive
	coupon.ExpiresAt = input.ExpiresAt
	coupon.MaxUses = input.MaxUses
	coupon.MinPurchase = input.MinPurchase
}
