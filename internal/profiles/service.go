package profiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/reporting"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/storage/supabase"
)

const tableProfiles = "profiles"

type profileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpsertEditable(ctx context.Context, id uuid.UUID, input UpdateProfileInput) error
	SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error
}

type ServiceParams struct {
	Repo     profileStore
	Storage  supabase.Uploader
	Reporter reporting.Reporter
	Config   config.StorageConfig
}

// Service reads and edits the signed-in user's own profile.
type Service struct {
	repo     profileStore
	storage  supabase.Uploader
	reporter reporting.Reporter
	bucket   string
	maxBytes int64
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("profile repository required")
	}
	reporter := params.Reporter
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Service{
		repo:     params.Repo,
		storage:  params.Storage,
		reporter: reporter,
		bucket:   params.Config.AvatarBucket,
		maxBytes: params.Config.MaxAvatarBytes(),
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, id *identity.Identity) (*ProfileDTO, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	row, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		s.reporter.Report(ctx, err, tableProfiles, reporting.OpSelect, map[string]any{"user_id": id.UserID.String()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return FromModel(row), nil
}

// UpdateProfile writes the editable fields and returns the stored profile.
// The role column is never written here.
func (s *Service) UpdateProfile(ctx context.Context, id *identity.Identity, input UpdateProfileInput) (*ProfileDTO, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	if err := s.repo.UpsertEditable(ctx, id.UserID, input); err != nil {
		s.reporter.Report(ctx, err, tableProfiles, reporting.OpUpdate, map[string]any{"user_id": id.UserID.String()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.GetProfile(ctx, id)
}

// UploadAvatar stores an image under <user_id>/<uuid>.<ext> in the avatar
// bucket and points the profile at its public URL.
func (s *Service) UploadAvatar(ctx context.Context, id *identity.Identity, body io.Reader) (string, error) {
	if id == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	if s.storage == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "avatar storage is not configured")
	}
	if body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "avatar file is required")
	}

	reader := body
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read avatar")
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "avatar file is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", pkgerrors.Newf(pkgerrors.CodeTooLarge, "avatar must be at most %d bytes", s.maxBytes)
	}

	mimeType, ext, ok := sniffAvatar(data)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("avatar must be %s", allowedAvatarDescription)).
			WithDetails(map[string]any{"detected": mimeType})
	}

	objectPath := fmt.Sprintf("%s/%s.%s", id.UserID, uuid.New(), ext)
	if err := s.storage.Upload(ctx, s.bucket, objectPath, mimeType, bytes.NewReader(data)); err != nil {
		s.reporter.Report(ctx, err, "storage.objects", reporting.OpInsert, map[string]any{"path": objectPath})
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload avatar")
	}

	url := s.storage.PublicURL(s.bucket, objectPath)
	if err := s.repo.SetAvatarURL(ctx, id.UserID, url); err != nil {
		s.reporter.Report(ctx, err, tableProfiles, reporting.OpUpdate, map[string]any{"user_id": id.UserID.String()})
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save avatar url")
	}
	return url, nil
}
