package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user account row. ID equals the identity provider's user id.
// Role is nullable and stored as text; readers must validate it.
type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName *string   `gorm:"column:display_name"`
	Bio         *string   `gorm:"column:bio"`
	AvatarURL   *string   `gorm:"column:avatar_url"`
	Role        *string   `gorm:"column:role"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }
