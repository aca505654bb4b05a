package shortlinks

import (
	"time"

	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/pkg/db/models"
)

// ShortlinkDTO is the admin view of a shortlink.
type ShortlinkDTO struct {
	ID             uuid.UUID  `json:"id"`
	Path           string     `json:"path"`
	DestinationURL string     `json:"destination_url"`
	Title          *string    `json:"title,omitempty"`
	IsActive       bool       `json:"is_active"`
	DomainID       *string    `json:"domain_id,omitempty"`
	ClickCount     int64      `json:"click_count"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListResult struct {
	Items  []ShortlinkDTO `json:"items"`
	Cursor string         `json:"cursor"`
}

// PathCheck is the inline feedback for a candidate path.
type PathCheck struct {
	Available  bool             `json:"available"`
	Validation ValidationResult `json:"validation"`
	Collision  *CollisionResult `json:"collision,omitempty"`
}

func toDTO(m models.Shortlink) ShortlinkDTO {
	return ShortlinkDTO{
		ID:             m.ID,
		Path:           m.Path,
		DestinationURL: m.DestinationURL,
		Title:          m.Title,
		IsActive:       m.IsActive,
		DomainID:       m.DomainID,
		ClickCount:     m.ClickCount,
		LastClickedAt:  m.LastClickedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
