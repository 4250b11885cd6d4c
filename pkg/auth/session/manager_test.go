package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	data map[string]time.Duration
	err  error
}

func (f *fakeStore) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = ttl
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.data[key]
	return ok, nil
}

type fakeKeyer struct{}

func (fakeKeyer) RevokedSessionKey(id string) string { return "revoked:" + id }

func TestRevokeAndCheck(t *testing.T) {
	store := &fakeStore{data: map[string]time.Duration{}}
	mgr, err := newManager(store, fakeKeyer{}, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	if revoked, _ := mgr.IsRevoked(ctx, "sess-1"); revoked {
		t.Fatal("session should start live")
	}
	if err := mgr.Revoke(ctx, " sess-1 "); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.data["revoked:sess-1"] != time.Hour {
		t.Fatalf("expected revocation stored with ttl, got %+v", store.data)
	}
	if revoked, _ := mgr.IsRevoked(ctx, "sess-1"); !revoked {
		t.Fatal("expected session revoked")
	}
	if revoked, _ := mgr.IsRevoked(ctx, ""); revoked {
		t.Fatal("empty session id must not be reported revoked")
	}
}

func TestRevokeValidation(t *testing.T) {
	if _, err := newManager(&fakeStore{}, fakeKeyer{}, 0); err == nil {
		t.Fatal("expected ttl validation error")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected nil client error")
	}

	mgr, _ := newManager(&fakeStore{data: map[string]time.Duration{}, err: errors.New("down")}, fakeKeyer{}, time.Minute)
	if err := mgr.Revoke(context.Background(), ""); err == nil {
		t.Fatal("expected empty session id error")
	}
	if _, err := mgr.IsRevoked(context.Background(), "s"); err == nil {
		t.Fatal("expected store error to surface")
	}
}
