package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/profiles"
	"github.com/weglobalmusic/wgme-backend/internal/referrals"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
	"github.com/weglobalmusic/wgme-backend/pkg/types"
)

type stubReferrals struct {
	match      *referrals.CodeMatch
	redeemErr  error
	redeemed   string
	listParams pagination.Params
}

func (s *stubReferrals) ValidateReferralCode(_ context.Context, code string) *referrals.CodeMatch {
	if s.match != nil && code == "WGME-ABC123" {
		return s.match
	}
	return nil
}

func (s *stubReferrals) CodeView(_ context.Context, id *identity.Identity) (*referrals.CodeView, error) {
	if id == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}
	link := "https://weglobalmusic.com/auth?ref=WGME-ABC123"
	return &referrals.CodeView{Code: "WGME-ABC123", Link: &link, IsActive: true}, nil
}

func (s *stubReferrals) ListReferralPage(_ context.Context, _ *identity.Identity, params pagination.Params) (*referrals.ReferralPage, error) {
	s.listParams = params
	return &referrals.ReferralPage{Referrals: []referrals.ReferralView{{ID: uuid.New()}}, NextCursor: "next"}, nil
}

func (s *stubReferrals) Stats(context.Context, *identity.Identity) (*referrals.Stats, error) {
	return &referrals.Stats{Total: 1, Pending: 1, UsesCount: 1}, nil
}

func (s *stubReferrals) Redeem(_ context.Context, id *identity.Identity, code string) (*referrals.ReferralView, error) {
	s.redeemed = code
	if s.redeemErr != nil {
		return nil, s.redeemErr
	}
	return &referrals.ReferralView{ID: uuid.New(), ReferredID: id.UserID}, nil
}

func withUser(req *http.Request) *http.Request {
	return req.WithContext(identity.WithIdentity(req.Context(), &identity.Identity{UserID: uuid.New(), SessionID: "sess-1"}))
}

func decodeError(t *testing.T, body io.Reader) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Error
}

func TestReferralValidate(t *testing.T) {
	svc := &stubReferrals{match: &referrals.CodeMatch{ID: uuid.New(), UserID: uuid.New(), IsActive: true}}
	r := chi.NewRouter()
	r.Get("/api/public/referrals/{code}", ReferralValidate(svc, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/public/referrals/WGME-ABC123", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), svc.match.UserID.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/public/referrals/WGME-NOPE", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeNotFound), decodeError(t, resp.Body).Code)
}

func TestReferralRedeem(t *testing.T) {
	svc := &stubReferrals{}
	handler := ReferralRedeem(svc, nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/referrals", strings.NewReader(`{"code":"WGME-ABC123"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "WGME-ABC123", svc.redeemed)

	svc.redeemErr = pkgerrors.New(pkgerrors.CodeConflict, "user has already been referred")
	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/referrals", strings.NewReader(`{"code":"WGME-ABC123"}`)))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusConflict, resp.Code)

	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/referrals", strings.NewReader(`{}`)))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReferralListAndCode(t *testing.T) {
	svc := &stubReferrals{}

	resp := httptest.NewRecorder()
	ReferralList(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/referrals?limit=10&cursor=abc", nil)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.listParams)

	var env struct {
		Data referralListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Len(t, env.Data.Referrals, 1)
	assert.Equal(t, "next", env.Data.NextCursor)
	assert.EqualValues(t, 1, env.Data.Stats.Total)

	resp = httptest.NewRecorder()
	ReferralList(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/referrals?limit=500", nil)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	ReferralCode(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/referrals/code", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

type stubProfiles struct {
	uploaded []byte
}

func (s *stubProfiles) GetProfile(context.Context, *identity.Identity) (*profiles.ProfileDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
}

func (s *stubProfiles) UpdateProfile(_ context.Context, id *identity.Identity, input profiles.UpdateProfileInput) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{ID: id.UserID, DisplayName: input.DisplayName}, nil
}

func (s *stubProfiles) UploadAvatar(_ context.Context, _ *identity.Identity, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.uploaded = data
	return "https://cdn.example/avatar.png", nil
}

func TestProfileHandlers(t *testing.T) {
	svc := &stubProfiles{}

	resp := httptest.NewRecorder()
	ProfileGet(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	ProfileUpdate(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"display_name":"Nova"}`))))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Nova")

	resp = httptest.NewRecorder()
	ProfileUpdate(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"role":"admin"}`))))
	assert.Equal(t, http.StatusBadRequest, resp.Code, "role is not an editable field")
}

func TestProfileAvatarUploadMultipart(t *testing.T) {
	svc := &stubProfiles{}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("image-bytes"))
	require.NoError(t, mw.Close())

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/profile/avatar", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	ProfileAvatarUpload(svc, 1<<20, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "image-bytes", string(svc.uploaded))

	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/profile/avatar", strings.NewReader("--x--")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	resp = httptest.NewRecorder()
	ProfileAvatarUpload(svc, 1<<20, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

type stubRevoker struct {
	revoked string
	err     error
}

func (s *stubRevoker) Revoke(_ context.Context, sessionID string) error {
	s.revoked = sessionID
	return s.err
}

func TestAuthLogout(t *testing.T) {
	revoker := &stubRevoker{}
	resp := httptest.NewRecorder()
	AuthLogout(revoker, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "sess-1", revoker.revoked)

	revoker.err = errors.New("redis down")
	resp = httptest.NewRecorder()
	AuthLogout(revoker, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-WGME-Env"))

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"redis": stubPinger{err: errors.New("refused")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
