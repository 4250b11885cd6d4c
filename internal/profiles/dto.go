package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
)

// ProfileDTO is the transport shape of a profile row.
type ProfileDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	Role        *string   `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateProfileInput carries the fields a user may edit on their own profile.
type UpdateProfileInput struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=80"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
