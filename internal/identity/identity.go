// Package identity models the signed-in user as seen by the rest of the app.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is an authenticated user. A nil *Identity means nobody is signed in.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	SessionID string
}

// SameUser reports whether a and b refer to the same user (or are both absent).
func SameUser(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UserID == b.UserID
}

type ctxKey struct{}

// WithIdentity stores id on ctx for request-scoped consumers.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request identity, or nil when unauthenticated.
func FromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
