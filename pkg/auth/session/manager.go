package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/weglobalmusic/wgme-backend/pkg/redis"
)

const revokedMarker = "1"

type revocationStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

type revocationKeyer interface {
	RevokedSessionKey(sessionID string) string
}

// RevocationChecker is the read-only surface auth middleware needs.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Manager keeps a denylist of logged-out identity provider sessions. Access
// tokens are stateless, so a revoked session id must be remembered until every
// token minted for it has expired.
type Manager struct {
	store revocationStore
	keyer revocationKeyer
	ttl   time.Duration
}

// NewManager builds a revocation manager; ttl should be at least the access token lifetime.
func NewManager(client *redisclient.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, ttl)
}

func newManager(store revocationStore, keyer revocationKeyer, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("revocation ttl must be positive")
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

// Revoke denylists sessionID for the manager's ttl.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("session id is required")
	}
	return m.store.Set(ctx, m.keyer.RevokedSessionKey(sessionID), revokedMarker, m.ttl)
}

// IsRevoked reports whether sessionID was logged out. Tokens without a session
// id cannot be revoked and are reported as live.
func (m *Manager) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}
	return m.store.Exists(ctx, m.keyer.RevokedSessionKey(sessionID))
}
