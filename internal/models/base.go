package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
// ID is a UUID string so SQL and document backends share one identifier format.
type Base struct {
	ID        string    `json:"_id"       gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID assigns a fresh UUID when the entity has none yet.
func (b *Base) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
}

// Touch advances UpdatedAt to now, never moving it backwards.
func (b *Base) Touch(now time.Time) {
	if now.After(b.UpdatedAt) {
		b.UpdatedAt = now
	}
}
