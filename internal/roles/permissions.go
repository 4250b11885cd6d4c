package roles

import "github.com/weglobalmusic/wgme-backend/pkg/enums"

// Permissions is the capability set derived from identity presence and role.
// It is never persisted.
type Permissions struct {
	CanAccessDashboard bool `json:"canAccessDashboard"`
	CanViewReferrals   bool `json:"canViewReferrals"`
	CanUploadBeats     bool `json:"canUploadBeats"`
	CanManageBookings  bool `json:"canManageBookings"`
	CanViewFranchise   bool `json:"canViewFranchise"`
	CanRequestPayouts  bool `json:"canRequestPayouts"`
	CanAccessAdmin     bool `json:"canAccessAdmin"`
	CanManageContent   bool `json:"canManageContent"`
	CanManageUsers     bool `json:"canManageUsers"`
	CanViewAnalytics   bool `json:"canViewAnalytics"`
}

// Derive computes the permission set. It is pure.
func Derive(hasUser bool, role *enums.Role) Permissions {
	producerOrAdmin := role != nil && (*role == enums.RoleProducer || *role == enums.RoleAdmin)
	admin := role != nil && *role == enums.RoleAdmin
	return Permissions{
		CanAccessDashboard: hasUser,
		CanViewReferrals:   hasUser,
		CanUploadBeats:     producerOrAdmin,
		CanManageBookings:  producerOrAdmin,
		CanViewFranchise:   producerOrAdmin,
		CanRequestPayouts:  producerOrAdmin,
		CanAccessAdmin:     admin,
		CanManageContent:   admin,
		CanManageUsers:     admin,
		CanViewAnalytics:   admin,
	}
}

// Permission names a single capability for route guards.
type Permission string

const (
	PermDashboardAccess Permission = "dashboard:access"
	PermReferralsView   Permission = "referrals:view"
	PermBeatsUpload     Permission = "beats:upload"
	PermBookingsManage  Permission = "bookings:manage"
	PermFranchiseView   Permission = "franchise:view"
	PermPayoutsRequest  Permission = "payouts:request"
	PermAdminAccess     Permission = "admin:access"
	PermContentManage   Permission = "content:manage"
	PermUsersManage     Permission = "users:manage"
	PermAnalyticsView   Permission = "analytics:view"
)

// Has reports whether p is granted. Unknown permissions are never granted.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermDashboardAccess:
		return p.CanAccessDashboard
	case PermReferralsView:
		return p.CanViewReferrals
	case PermBeatsUpload:
		return p.CanUploadBeats
	case PermBookingsManage:
		return p.CanManageBookings
	case PermFranchiseView:
		return p.CanViewFranchise
	case PermPayoutsRequest:
		return p.CanRequestPayouts
	case PermAdminAccess:
		return p.CanAccessAdmin
	case PermContentManage:
		return p.CanManageContent
	case PermUsersManage:
		return p.CanManageUsers
	case PermAnalyticsView:
		return p.CanViewAnalytics
	default:
		return false
	}
}
