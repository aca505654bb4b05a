package shortlinks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/pagination"
)

// Repository exposes shortlink persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByPath returns the shortlink owning path, or nil, nil when there is none.
func (r *Repository) FindByPath(ctx context.Context, path string) (*models.Shortlink, error) {
	var rows []models.Shortlink
	if err := r.db.WithContext(ctx).Where("path = ?", path).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shortlink, error) {
	var link models.Shortlink
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// List returns shortlinks newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Shortlink, error) {
	var rows []models.Shortlink
	err := r.db.WithContext(ctx).
		Model(&models.Shortlink{}).
		Scopes(pagination.Keyset(cursor, limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, link *models.Shortlink) (*models.Shortlink, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// Update persists the editable columns; click statistics are left alone.
func (r *Repository) Update(ctx context.Context, link *models.Shortlink) (*models.Shortlink, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Shortlink{}).
		Where("id = ?", link.ID).
		Updates(map[string]any{
			"path":            link.Path,
			"destination_url": link.DestinationURL,
			"title":           link.Title,
			"is_active":       link.IsActive,
			"domain_id":       link.DomainID,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, link.ID)
}

// Delete removes the shortlink; gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Shortlink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementClicks bumps the click counter atomically.
func (r *Repository) IncrementClicks(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Shortlink{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"click_count":     gorm.Expr("click_count + 1"),
			"last_clicked_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
