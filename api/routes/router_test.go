package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weglobalmusic/wgme-backend/api/controllers"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/profiles"
	"github.com/weglobalmusic/wgme-backend/internal/referrals"
	"github.com/weglobalmusic/wgme-backend/internal/roles"
	"github.com/weglobalmusic/wgme-backend/pkg/auth"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/metrics"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func (stubSessions) Revoke(context.Context, string) error { return nil }

type stubRedis struct{}

func (stubRedis) Get(context.Context, string) (string, error) { return "", nil }

func (stubRedis) SetNX(context.Context, string, any, time.Duration) (bool, error) { return true, nil }

func (stubRedis) Set(context.Context, string, any, time.Duration) error { return nil }

func (stubRedis) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (stubRedis) Del(context.Context, ...string) error { return nil }

func (stubRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

// stubResolver maps user ids to roles.
type stubResolver map[uuid.UUID]enums.Role

func (s stubResolver) Resolve(_ context.Context, id *identity.Identity) roles.Resolution {
	if id == nil {
		return roles.Resolution{Permissions: roles.Derive(false, nil)}
	}
	if role, ok := s[id.UserID]; ok {
		return roles.Resolution{Role: &role, Permissions: roles.Derive(true, &role)}
	}
	return roles.Resolution{Permissions: roles.Derive(true, nil)}
}

type stubReferrals struct{}

func (stubReferrals) ValidateReferralCode(context.Context, string) *referrals.CodeMatch { return nil }

func (stubReferrals) CodeView(context.Context, *identity.Identity) (*referrals.CodeView, error) {
	return &referrals.CodeView{Code: "WGME-ABC123", IsActive: true}, nil
}

func (stubReferrals) ListReferralPage(context.Context, *identity.Identity, pagination.Params) (*referrals.ReferralPage, error) {
	return &referrals.ReferralPage{}, nil
}

func (stubReferrals) Stats(context.Context, *identity.Identity) (*referrals.Stats, error) {
	return &referrals.Stats{}, nil
}

func (stubReferrals) Redeem(context.Context, *identity.Identity, string) (*referrals.ReferralView, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found")
}

type stubProfiles struct{}

func (stubProfiles) GetProfile(_ context.Context, id *identity.Identity) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{ID: id.UserID}, nil
}

func (stubProfiles) UpdateProfile(_ context.Context, id *identity.Identity, _ profiles.UpdateProfileInput) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{ID: id.UserID}, nil
}

func (stubProfiles) UploadAvatar(context.Context, *identity.Identity, io.Reader) (string, error) {
	return "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:5173"}},
		JWT: config.JWTConfig{Secret: "router-secret", Audience: "authenticated", ExpirationMinutes: 10},
		AuthRateLimit: config.AuthRateLimitConfig{
			ValidateWindow:  time.Minute,
			ValidateIPLimit: 30,
		},
	}
}

func newTestRouter(t *testing.T, resolver stubResolver) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	return NewRouter(cfg, nil, Deps{
		Pingers:   map[string]controllers.Pinger{"db": stubPinger{}},
		Redis:     stubRedis{},
		Sessions:  stubSessions{},
		Resolver:  resolver,
		Referrals: stubReferrals{},
		Profiles:  stubProfiles{},
		Metrics:   metrics.NewHTTPMetrics(reg),
		Gatherer:  reg,
	}), cfg
}

func bearer(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:    userID,
		SessionID: "sess-" + userID.String(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router http.Handler, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router, _ := newTestRouter(t, stubResolver{})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "").Code)

	resp := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "wgme_http_requests_total")
}

func TestPublicReferralValidateNeedsNoToken(t *testing.T) {
	router, _ := newTestRouter(t, stubResolver{})

	resp := do(router, http.MethodGet, "/api/public/referrals/WGME-UNKNOWN", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router, cfg := newTestRouter(t, stubResolver{})

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/me/role", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/referrals/code", "").Code)

	userID := uuid.New()
	resp := do(router, http.MethodGet, "/api/v1/referrals/code", bearer(t, cfg, userID))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "WGME-ABC123")

	resp = do(router, http.MethodGet, "/api/v1/profile", bearer(t, cfg, userID))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), userID.String())
}

func TestRoleGuardedRoutes(t *testing.T) {
	artist, producer, admin := uuid.New(), uuid.New(), uuid.New()
	router, cfg := newTestRouter(t, stubResolver{
		artist:   enums.RoleArtist,
		producer: enums.RoleProducer,
		admin:    enums.RoleAdmin,
	})

	tests := []struct {
		name string
		user uuid.UUID
		path string
		want int
	}{
		{"artist producer ping", artist, "/api/v1/producer/ping", http.StatusForbidden},
		{"producer producer ping", producer, "/api/v1/producer/ping", http.StatusOK},
		{"admin producer ping", admin, "/api/v1/producer/ping", http.StatusOK},
		{"producer admin ping", producer, "/api/admin/ping", http.StatusForbidden},
		{"admin admin ping", admin, "/api/admin/ping", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(router, http.MethodGet, tc.path, bearer(t, cfg, tc.user))
			assert.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestMeRoleReportsPermissions(t *testing.T) {
	producer := uuid.New()
	router, cfg := newTestRouter(t, stubResolver{producer: enums.RoleProducer})

	resp := do(router, http.MethodGet, "/api/v1/me/role", bearer(t, cfg, producer))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"role":"producer"`)
	assert.Contains(t, resp.Body.String(), `"canUploadBeats":true`)
}
