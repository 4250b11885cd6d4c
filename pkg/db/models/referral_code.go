package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralCode is the single shareable code owned by a user.
type ReferralCode struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	UsesCount int       `gorm:"column:uses_count;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

func (c *ReferralCode) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
