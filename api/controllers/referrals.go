package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/api/validators"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/referrals"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
)

const (
	maxCodeLength   = 48
	maxCursorLength = 128
)

type referralService interface {
	ValidateReferralCode(ctx context.Context, code string) *referrals.CodeMatch
	CodeView(ctx context.Context, id *identity.Identity) (*referrals.CodeView, error)
	ListReferralPage(ctx context.Context, id *identity.Identity, params pagination.Params) (*referrals.ReferralPage, error)
	Stats(ctx context.Context, id *identity.Identity) (*referrals.Stats, error)
	Redeem(ctx context.Context, id *identity.Identity, code string) (*referrals.ReferralView, error)
}

type redeemRequest struct {
	Code string `json:"code" validate:"required,max=48,printascii"`
}

type referralListResponse struct {
	Referrals  []referrals.ReferralView `json:"referrals"`
	NextCursor string                   `json:"next_cursor,omitempty"`
	Stats      *referrals.Stats         `json:"stats"`
}

// ReferralValidate is public: it tells a signup page whether a ?ref= code is
// live and whose it is.
func ReferralValidate(svc referralService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := validators.SanitizeString(chi.URLParam(r, "code"), maxCodeLength)
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}
		match := svc.ValidateReferralCode(r.Context(), code)
		if match == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found"))
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// ReferralCode returns the caller's code, creating it on first request.
func ReferralCode(svc referralService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.CodeView(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ReferralList pages through the caller's referrals with ?limit= and ?cursor=
// and includes their totals.
func ReferralList(svc referralService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor", maxCursorLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := identity.FromContext(r.Context())
		page, err := svc.ListReferralPage(r.Context(), id, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, referralListResponse{
			Referrals:  page.Referrals,
			NextCursor: page.NextCursor,
			Stats:      stats,
		})
	}
}

// ReferralRedeem records the caller as referred by the owner of the posted code.
func ReferralRedeem(svc referralService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body redeemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Redeem(r.Context(), identity.FromContext(r.Context()), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
