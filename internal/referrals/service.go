package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/reporting"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/db"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/outbox"
	"github.com/weglobalmusic/wgme-backend/pkg/outbox/payloads"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
)

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Tx       db.Transactor
	Repo     *Repository
	Outbox   eventEmitter
	Reporter reporting.Reporter
	Logger   *logger.Logger
	Config   config.ReferralConfig
}

// Service is the referral ledger: it issues codes, validates them, and records
// referrals against them.
type Service struct {
	tx       db.Transactor
	repo     *Repository
	outbox   eventEmitter
	reporter reporting.Reporter
	logg     *logger.Logger
	cfg      config.ReferralConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, errors.New("referral repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	reporter := params.Reporter
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	cfg := params.Config
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = DefaultCodePrefix
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	return &Service{
		tx:       params.Tx,
		repo:     params.Repo,
		outbox:   params.Outbox,
		reporter: reporter,
		logg:     params.Logger,
		cfg:      cfg,
	}, nil
}

// EnsureReferralCode returns the caller's code, creating it on first use.
// It returns nil when nobody is signed in or the store could not produce a code;
// store failures are reported, never returned.
func (s *Service) EnsureReferralCode(ctx context.Context, id *identity.Identity) *models.ReferralCode {
	if id == nil {
		return nil
	}
	fields := map[string]any{"user_id": id.UserID.String()}

	existing, err := s.repo.FindCodeByUserID(ctx, id.UserID)
	if err != nil {
		s.reporter.Report(ctx, err, tableCodes, reporting.OpSelect, fields)
		return nil
	}
	if existing != nil {
		return existing
	}

	for _, candidate := range candidateCodes(s.cfg.CodePrefix, s.cfg.CodeLength, id.UserID.String()) {
		created, err := s.issueCode(ctx, id.UserID, candidate)
		if err == nil {
			return created
		}
		if !db.IsUniqueViolation(err, "") {
			s.reporter.Report(ctx, err, tableCodes, reporting.OpInsert, fields)
			return nil
		}

		// Either a concurrent first call for this user won the race, or the
		// candidate belongs to someone else. Prefer the row that now exists.
		existing, err = s.repo.FindCodeByUserID(ctx, id.UserID)
		if err != nil {
			s.reporter.Report(ctx, err, tableCodes, reporting.OpSelect, fields)
			return nil
		}
		if existing != nil {
			return existing
		}
		s.debug(ctx, "referral code candidate taken, trying a longer one", map[string]any{"candidate": candidate})
	}

	s.reporter.Report(ctx, errors.New("no free referral code candidate"), tableCodes, reporting.OpInsert, fields)
	return nil
}

func (s *Service) issueCode(ctx context.Context, userID uuid.UUID, code string) (*models.ReferralCode, error) {
	var created *models.ReferralCode
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.WithTx(tx).InsertCode(ctx, userID, code)
		if err != nil {
			return err
		}
		created = row
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReferralCodeIssued,
			AggregateType: enums.AggregateReferralCode,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          payloads.ReferralCodeIssuedEvent{ReferralCodeID: row.ID, UserID: userID, Code: row.Code},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ValidateReferralCode looks up an active code. Unknown, inactive and blank
// codes, as well as store failures, all yield nil.
func (s *Service) ValidateReferralCode(ctx context.Context, code string) *CodeMatch {
	code = NormalizeCode(code)
	if code == "" {
		return nil
	}
	row, err := s.repo.FindActiveCode(ctx, code)
	if err != nil {
		s.reporter.Report(ctx, err, tableCodes, reporting.OpSelect, map[string]any{"code": code})
		return nil
	}
	if row == nil {
		return nil
	}
	return &CodeMatch{ID: row.ID, UserID: row.UserID, IsActive: row.IsActive}
}

// RecordReferral attributes the signed-in user to referrerID's code. The
// referral row, the counter increment and the outbox event commit together or
// not at all. It returns false on any failure.
func (s *Service) RecordReferral(ctx context.Context, id *identity.Identity, referralCodeID, referrerID uuid.UUID) bool {
	return s.record(ctx, id, referralCodeID, referrerID) == nil
}

// Redeem validates code and records the signed-in user as referred by its owner.
// Unlike RecordReferral it returns a typed error describing why it failed.
func (s *Service) Redeem(ctx context.Context, id *identity.Identity, code string) (*ReferralView, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to redeem a referral code")
	}
	match := s.ValidateReferralCode(ctx, code)
	if match == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found")
	}
	var view ReferralView
	if err := s.recordInto(ctx, id, match.ID, match.UserID, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) record(ctx context.Context, id *identity.Identity, referralCodeID, referrerID uuid.UUID) error {
	return s.recordInto(ctx, id, referralCodeID, referrerID, nil)
}

func (s *Service) recordInto(ctx context.Context, id *identity.Identity, referralCodeID, referrerID uuid.UUID, out *ReferralView) error {
	if id == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	if referrerID == id.UserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "users cannot refer themselves")
	}
	fields := map[string]any{
		"referred_id":      id.UserID.String(),
		"referrer_id":      referrerID.String(),
		"referral_code_id": referralCodeID.String(),
	}

	referral := &models.Referral{
		ReferrerID:        referrerID,
		ReferredID:        id.UserID,
		ReferralCodeID:    referralCodeID,
		Status:            enums.ReferralStatusPending,
		QualificationType: enums.QualificationTypeSignup,
	}

	table, op := tableReferrals, reporting.OpInsert
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.InsertReferral(ctx, referral); err != nil {
			return err
		}
		table, op = tableCodes, reporting.OpUpdate
		if err := repo.IncrementUses(ctx, referralCodeID, referrerID); err != nil {
			return err
		}
		table, op = "outbox_events", reporting.OpInsert
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReferralRecorded,
			AggregateType: enums.AggregateReferral,
			AggregateID:   referral.ID,
			Actor:         &outbox.ActorRef{UserID: id.UserID},
			Data: payloads.ReferralRecordedEvent{
				ReferralID:        referral.ID,
				ReferralCodeID:    referralCodeID,
				ReferrerID:        referrerID,
				ReferredID:        id.UserID,
				Status:            referral.Status,
				QualificationType: referral.QualificationType,
			},
		})
	})

	switch {
	case err == nil:
		if out != nil {
			*out = toReferralView(*referral)
		}
		s.debug(ctx, "referral recorded", fields)
		return nil
	case db.IsUniqueViolation(err, ""):
		s.debug(ctx, "referred user already has a referral", fields)
		return pkgerrors.New(pkgerrors.CodeConflict, "user has already been referred")
	case errors.Is(err, errCodeNotOwned):
		s.reporter.Report(ctx, err, table, op, fields)
		return pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found")
	default:
		s.reporter.Report(ctx, err, table, op, fields)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record referral")
	}
}

// ReferralLink returns the shareable signup link for code, or nil when there is no code.
func (s *Service) ReferralLink(code *models.ReferralCode) *string {
	if code == nil || code.Code == "" {
		return nil
	}
	link := BuildLink(s.cfg.LinkOrigin, code.Code)
	return &link
}

// CodeView ensures the caller's code and pairs it with its link.
func (s *Service) CodeView(ctx context.Context, id *identity.Identity) (*CodeView, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	code := s.EnsureReferralCode(ctx, id)
	if code == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "referral code unavailable")
	}
	return &CodeView{
		Code:      code.Code,
		Link:      s.ReferralLink(code),
		IsActive:  code.IsActive,
		UsesCount: code.UsesCount,
	}, nil
}

// ListReferrals returns up to limit of the caller's referrals, newest first.
// A non-positive limit uses the configured default.
func (s *Service) ListReferrals(ctx context.Context, id *identity.Identity, limit int) ([]ReferralView, error) {
	page, err := s.ListReferralPage(ctx, id, pagination.Params{Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Referrals, nil
}

// ListReferralPage is the cursor-paged form of ListReferrals.
func (s *Service) ListReferralPage(ctx context.Context, id *identity.Identity, params pagination.Params) (*ReferralPage, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.ListLimit
	}
	limit = pagination.NormalizeLimit(limit)

	rows, next, err := s.repo.ListByReferrer(ctx, id.UserID, limit, cursor)
	if err != nil {
		s.reporter.Report(ctx, err, tableReferrals, reporting.OpSelect, map[string]any{"user_id": id.UserID.String()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list referrals")
	}
	page := &ReferralPage{Referrals: make([]ReferralView, 0, len(rows))}
	for _, row := range rows {
		page.Referrals = append(page.Referrals, toReferralView(row))
	}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// Stats summarizes the caller's referrals by status along with their code's counter.
func (s *Service) Stats(ctx context.Context, id *identity.Identity) (*Stats, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	fields := map[string]any{"user_id": id.UserID.String()}

	counts, err := s.repo.CountByStatus(ctx, id.UserID)
	if err != nil {
		s.reporter.Report(ctx, err, tableReferrals, reporting.OpSelect, fields)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count referrals")
	}
	stats := &Stats{
		Pending:   counts[enums.ReferralStatusPending],
		Qualified: counts[enums.ReferralStatusQualified],
		Rewarded:  counts[enums.ReferralStatusRewarded],
	}
	stats.Total = stats.Pending + stats.Qualified + stats.Rewarded

	code, err := s.repo.FindCodeByUserID(ctx, id.UserID)
	if err != nil {
		s.reporter.Report(ctx, err, tableCodes, reporting.OpSelect, fields)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral code")
	}
	if code != nil {
		stats.UsesCount = code.UsesCount
	}
	return stats, nil
}

// ReconcileUsage rewrites uses_count for codes whose counter disagrees with
// their referral rows, and returns how many codes were fixed.
func (s *Service) ReconcileUsage(ctx context.Context) (int, error) {
	drifted, err := s.repo.FindDriftedCodes(ctx, s.cfg.ReconcileBatch)
	if err != nil {
		s.reporter.Report(ctx, err, tableCodes, reporting.OpSelect, nil)
		return 0, err
	}

	fixed := 0
	var errs error
	for _, row := range drifted {
		ok, err := s.repo.SetUses(ctx, row.ID, row.UsesCount, row.Actual)
		if err != nil {
			s.reporter.Report(ctx, err, tableCodes, reporting.OpUpdate, map[string]any{"referral_code_id": row.ID.String()})
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			fixed++
			s.debug(ctx, "referral code usage reconciled", map[string]any{
				"referral_code_id": row.ID.String(),
				"stored":           row.UsesCount,
				"actual":           row.Actual,
			})
		}
	}
	return fixed, errs
}

func (s *Service) debug(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithFields(ctx, fields), msg)
}
