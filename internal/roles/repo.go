package roles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/internal/repo"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// ProfilesLookup reads profiles.role by profile id.
type ProfilesLookup struct {
	repo.Base
}

func NewProfilesLookup(db *gorm.DB) *ProfilesLookup {
	return &ProfilesLookup{Base: repo.NewBase(db)}
}

func (l *ProfilesLookup) Name() string { return models.Profile{}.TableName() }

func (l *ProfilesLookup) LookupRole(ctx context.Context, userID uuid.UUID) (*enums.Role, error) {
	row, err := repo.FindOne[models.Profile](l.DB(ctx).Select("role").Where("id = ?", userID))
	if err != nil || row == nil {
		return nil, err
	}
	return enums.RolePtr(row.Role), nil
}

// UserRolesLookup reads the secondary user_roles table.
type UserRolesLookup struct {
	repo.Base
}

func NewUserRolesLookup(db *gorm.DB) *UserRolesLookup {
	return &UserRolesLookup{Base: repo.NewBase(db)}
}

func (l *UserRolesLookup) Name() string { return models.UserRole{}.TableName() }

func (l *UserRolesLookup) LookupRole(ctx context.Context, userID uuid.UUID) (*enums.Role, error) {
	row, err := repo.FindOne[models.UserRole](l.DB(ctx).
		Select("role").
		Where("user_id = ?", userID).
		Order("created_at ASC"))
	if err != nil || row == nil {
		return nil, err
	}
	return enums.RolePtr(&row.Role), nil
}

// NewDefaultResolverChain returns the production lookup order: profiles first,
// then user_roles.
func NewDefaultResolverChain(db *gorm.DB) []Lookup {
	return []Lookup{NewProfilesLookup(db), NewUserRolesLookup(db)}
}
