package models

import (
	"time"

	"github.com/google/uuid"
)

// Shortlink maps a short path to a destination URL.
type Shortlink struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Path           string     `gorm:"column:path;not null"`
	DestinationURL string     `gorm:"column:destination_url;not null"`
	Title          *string    `gorm:"column:title"`
	IsActive       bool       `gorm:"column:is_active;not null"`
	DomainID       *string    `gorm:"column:domain_id"`
	ClickCount     int64      `gorm:"column:click_count;not null;default:0"`
	LastClickedAt  *time.Time `gorm:"column:last_clicked_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shortlink) TableName() string { return "shortlinks" }
