package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
)

const (
	tableCodes     = "referral_codes"
	tableReferrals = "referrals"
)

var errCodeNotOwned = errors.New("referral code not found for referrer")

// Repository wraps referral_codes and referrals. Bind it to a transaction with WithTx.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindCodeByUserID returns (nil, nil) when the user has no code yet.
func (r *Repository) FindCodeByUserID(ctx context.Context, userID uuid.UUID) (*models.ReferralCode, error) {
	var rows []models.ReferralCode
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FindActiveCode returns (nil, nil) when code is unknown or inactive.
func (r *Repository) FindActiveCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rows []models.ReferralCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) InsertCode(ctx context.Context, userID uuid.UUID, code string) (*models.ReferralCode, error) {
	row := &models.ReferralCode{UserID: userID, Code: code, IsActive: true}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository) InsertReferral(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

// IncrementUses bumps uses_count in a single UPDATE so concurrent referrals
// against one code never lose an increment. The code must belong to referrerID.
func (r *Repository) IncrementUses(ctx context.Context, codeID, referrerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("id = ? AND user_id = ?", codeID, referrerID).
		UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errCodeNotOwned
	}
	return nil
}

// ListByReferrer returns up to limit referrals newest first, starting after
// cursor when set, plus the cursor of the next page when more rows remain.
func (r *Repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Referral, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Referral
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > limit {
		last := rows[limit-1]
		return rows[:limit], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

type statusCount struct {
	Status enums.ReferralStatus
	Total  int64
}

func (r *Repository) CountByStatus(ctx context.Context, referrerID uuid.UUID) (map[enums.ReferralStatus]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Select("status, COUNT(*) AS total").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ReferralStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// DriftedCode is a code whose stored counter disagrees with its referrals.
type DriftedCode struct {
	ID        uuid.UUID
	UsesCount int
	Actual    int
}

func (r *Repository) FindDriftedCodes(ctx context.Context, limit int) ([]DriftedCode, error) {
	var rows []DriftedCode
	q := r.db.WithContext(ctx).
		Table(tableCodes+" AS rc").
		Select("rc.id AS id, rc.uses_count AS uses_count, COUNT(r.id) AS actual").
		Joins("LEFT JOIN "+tableReferrals+" r ON r.referral_code_id = rc.id").
		Group("rc.id, rc.uses_count").
		Having("rc.uses_count <> COUNT(r.id)").
		Order("rc.id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&rows).Error
	return rows, err
}

// SetUses overwrites the counter only if it still holds expected, so a
// concurrent increment is never clobbered.
func (r *Repository) SetUses(ctx context.Context, codeID uuid.UUID, expected, actual int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("id = ? AND uses_count = ?", codeID, expected).
		UpdateColumn("uses_count", actual)
	return res.RowsAffected > 0, res.Error
}
