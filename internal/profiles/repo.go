package profiles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weglobalmusic/wgme-backend/internal/repo"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
)

// Repository persists profile rows. It never writes the role column.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID returns (nil, nil) when the profile does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return repo.FindOne[models.Profile](r.DB(ctx).Where("id = ?", id))
}

// UpsertEditable inserts the profile or updates the provided editable fields in
// place. Nil fields keep their stored value.
func (r *Repository) UpsertEditable(ctx context.Context, id uuid.UUID, input UpdateProfileInput) error {
	row := &models.Profile{ID: id, DisplayName: input.DisplayName, Bio: input.Bio}
	var columns []string
	if input.DisplayName != nil {
		columns = append(columns, "display_name")
	}
	if input.Bio != nil {
		columns = append(columns, "bio")
	}
	return r.upsert(ctx, row, columns...)
}

func (r *Repository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	row := &models.Profile{ID: id, AvatarURL: &url}
	return r.upsert(ctx, row, "avatar_url")
}

func (r *Repository) upsert(ctx context.Context, row *models.Profile, columns ...string) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return r.DB(ctx).
		Omit("role").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
		}).
		Create(row).Error
}
