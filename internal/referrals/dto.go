package referrals

import (
	"time"

	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// CodeMatch is the public view of a validated code.
type CodeMatch struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	IsActive bool      `json:"is_active"`
}

// CodeView is what the owner of a code sees on the referrals dashboard.
type CodeView struct {
	Code      string  `json:"code"`
	Link      *string `json:"link"`
	IsActive  bool    `json:"is_active"`
	UsesCount int     `json:"uses_count"`
}

type ReferralView struct {
	ID                uuid.UUID               `json:"id"`
	ReferredID        uuid.UUID               `json:"referred_id"`
	Status            enums.ReferralStatus    `json:"status"`
	QualificationType enums.QualificationType `json:"qualification_type"`
	CreatedAt         time.Time               `json:"created_at"`
}

// ReferralPage is one page of a referrer's referrals. NextCursor is empty on
// the last page.
type ReferralPage struct {
	Referrals  []ReferralView `json:"referrals"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Qualified int64 `json:"qualified"`
	Rewarded  int64 `json:"rewarded"`
	UsesCount int   `json:"uses_count"`
}

func toReferralView(r models.Referral) ReferralView {
	return ReferralView{
		ID:                r.ID,
		ReferredID:        r.ReferredID,
		Status:            r.Status,
		QualificationType: r.QualificationType,
		CreatedAt:         r.CreatedAt,
	}
}
