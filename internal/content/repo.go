package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/pkg/db/models"
)

// Repository looks up published content by the identifiers that appear in
// public URLs. Lookups return nil, nil when nothing matches.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var rows []models.BlogPost
	if err := r.db.WithContext(ctx).Where("LOWER(slug) = ?", slug).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) FindProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var rows []models.Project
	if err := r.db.WithContext(ctx).Where("LOWER(slug) = ?", slug).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FindCertificateByCredential matches the public credential id case-insensitively.
func (r *Repository) FindCertificateByCredential(ctx context.Context, credentialID string) (*models.Certificate, error) {
	var rows []models.Certificate
	if err := r.db.WithContext(ctx).Where("LOWER(credential_id) = ?", credentialID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Create inserts any content row, assigning an id when missing.
func (r *Repository) Create(ctx context.Context, row any) error {
	switch v := row.(type) {
	case *models.BlogPost:
		ensureID(&v.ID)
	case *models.Project:
		ensureID(&v.ID)
	case *models.Certificate:
		ensureID(&v.ID)
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
