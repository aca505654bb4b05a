package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/db/models"
)

// Repository reads catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID returns the product regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product. Used by seeding and tests; the catalog is
// otherwise managed outside this service.
func (r *Repository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ToPricing snapshots the prices a cart line needs.
func ToPricing(p *models.Product) pricing.Product {
	out := pricing.Product{
		ID:        p.ID.String(),
		Name:      p.Name,
		UnitPrice: p.Price,
		OnSale:    p.OnSale,
	}
	if p.DiscountedPrice != nil {
		sale := *p.DiscountedPrice
		out.DiscountedUnitPrice = &sale
	}
	return out
}
