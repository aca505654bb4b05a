package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/db/models"
)

// Repository defines order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// CouponUsage is the coupon access needed while placing an order.
type CouponUsage interface {
	WithTx(tx *gorm.DB) CouponUsage
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type cartSessions interface {
	Load(ctx context.Context, sessionID string) (*pricing.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
