package payloads

import (
	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// ReferralCodeIssuedEvent is emitted the first time a user is given a code.
type ReferralCodeIssuedEvent struct {
	ReferralCodeID uuid.UUID `json:"referralCodeId"`
	UserID         uuid.UUID `json:"userId"`
	Code           string    `json:"code"`
}

// ReferralRecordedEvent is emitted when a referred user is attributed to a referrer.
type ReferralRecordedEvent struct {
	ReferralID        uuid.UUID               `json:"referralId"`
	ReferralCodeID    uuid.UUID               `json:"referralCodeId"`
	ReferrerID        uuid.UUID               `json:"referrerId"`
	ReferredID        uuid.UUID               `json:"referredId"`
	Status            enums.ReferralStatus    `json:"status"`
	QualificationType enums.QualificationType `json:"qualificationType"`
}
