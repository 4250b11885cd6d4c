package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/roles"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

type stubResolver struct {
	role  *enums.Role
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, id *identity.Identity) roles.Resolution {
	s.calls++
	if id == nil {
		return roles.Resolution{Permissions: roles.Derive(false, nil)}
	}
	return roles.Resolution{Role: s.role, Permissions: roles.Derive(true, s.role)}
}

func rolePtr(r enums.Role) *enums.Role { return &r }

func serveAs(h http.Handler, id *identity.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != nil {
		req = req.WithContext(identity.WithIdentity(req.Context(), id))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRequirePermission(t *testing.T) {
	user := &identity.Identity{UserID: uuid.New()}
	tests := []struct {
		name string
		role *enums.Role
		id   *identity.Identity
		perm roles.Permission
		want int
	}{
		{"anonymous", nil, nil, roles.PermBeatsUpload, http.StatusUnauthorized},
		{"no role uploads", nil, user, roles.PermBeatsUpload, http.StatusForbidden},
		{"no role views referrals", nil, user, roles.PermReferralsView, http.StatusOK},
		{"artist uploads", rolePtr(enums.RoleArtist), user, roles.PermBeatsUpload, http.StatusForbidden},
		{"producer uploads", rolePtr(enums.RoleProducer), user, roles.PermBeatsUpload, http.StatusOK},
		{"producer admin", rolePtr(enums.RoleProducer), user, roles.PermAdminAccess, http.StatusForbidden},
		{"admin admin", rolePtr(enums.RoleAdmin), user, roles.PermAdminAccess, http.StatusOK},
	}
	for _, tt := range tests {
		resolver := &stubResolver{role: tt.role}
		resp := serveAs(RequirePermission(resolver, tt.perm, nil)(okHandler()), tt.id)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func TestResolveRoleRunsOncePerRequest(t *testing.T) {
	resolver := &stubResolver{role: rolePtr(enums.RoleAdmin)}
	var seen roles.Resolution
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ResolutionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	chain := ResolveRole(resolver, nil)(RequirePermission(resolver, roles.PermAdminAccess, nil)(inner))

	resp := serveAs(chain, &identity.Identity{UserID: uuid.New()})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolution, got %d", resolver.calls)
	}
	if seen.Role == nil || *seen.Role != enums.RoleAdmin {
		t.Fatalf("resolution not propagated: %+v", seen)
	}
}
