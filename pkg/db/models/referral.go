package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// Referral links a referred user to the code and user that referred them.
// ReferredID is unique: a user can be referred at most once.
type Referral struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ReferrerID        uuid.UUID               `gorm:"column:referrer_id;type:uuid;not null;index"`
	ReferredID        uuid.UUID               `gorm:"column:referred_id;type:uuid;not null;uniqueIndex"`
	ReferralCodeID    uuid.UUID               `gorm:"column:referral_code_id;type:uuid;not null;index"`
	Status            enums.ReferralStatus    `gorm:"column:status;not null;default:pending"`
	QualificationType enums.QualificationType `gorm:"column:qualification_type;not null"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (Referral) TableName() string { return "referrals" }

func (r *Referral) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
