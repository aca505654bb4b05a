package models

import (
	"time"

	"github.com/google/uuid"
)

type BlogPost struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string     `gorm:"column:slug;not null"`
	Title       string     `gorm:"column:title;not null"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (BlogPost) TableName() string { return "blog_posts" }

type Project struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug      string    `gorm:"column:slug;not null"`
	Title     string    `gorm:"column:title;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }

// Certificate is a public credential page reachable by its credential id.
type Certificate struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CredentialID string    `gorm:"column:credential_id;not null"`
	Title        string    `gorm:"column:title;not null"`
	Issuer       *string   `gorm:"column:issuer"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Certificate) TableName() string { return "certificates" }
