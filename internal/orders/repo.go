package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/internal/coupons"
	"github.com/linkcart/storefront-core/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the order repository to the provided GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its lines.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type couponUsage struct {
	repo *coupons.Repository
}

// NewCouponUsage adapts the coupon repository for order placement.
func NewCouponUsage(repo *coupons.Repository) CouponUsage {
	return couponUsage{repo: repo}
}

func (c couponUsage) WithTx(tx *gorm.DB) CouponUsage {
	return couponUsage{repo: c.repo.WithTx(tx)}
}

func (c couponUsage) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return c.repo.FindByID(ctx, id)
}

func (c couponUsage) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	return c.repo.IncrementUsage(ctx, id)
}
