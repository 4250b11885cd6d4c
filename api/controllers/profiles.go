package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/api/validators"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/profiles"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
)

const (
	avatarFormField   = "file"
	multipartOverhead = 1 << 20
)

type profileService interface {
	GetProfile(ctx context.Context, id *identity.Identity) (*profiles.ProfileDTO, error)
	UpdateProfile(ctx context.Context, id *identity.Identity, input profiles.UpdateProfileInput) (*profiles.ProfileDTO, error)
	UploadAvatar(ctx context.Context, id *identity.Identity, body io.Reader) (string, error)
}

func ProfileGet(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.GetProfile(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body profiles.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), identity.FromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileAvatarUpload accepts either a multipart form with a "file" part or
// the raw image as the request body.
func ProfileAvatarUpload(svc profileService, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		}

		var body io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			file, _, err := r.FormFile(avatarFormField)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadError(err))
				return
			}
			defer file.Close()
			body = file
		}

		url, err := svc.UploadAvatar(r.Context(), identity.FromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"avatar_url": url})
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "avatar is too large")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar file is required").
		WithDetails(map[string]any{"field": avatarFormField})
}
