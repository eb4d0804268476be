package models

import (
	"time"

	"budgetwise/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the columns shared by every table. IDs are time-ordered UUIDv7
// strings so that primary key order follows insertion order.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when the caller has not set one.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
