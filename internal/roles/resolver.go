package roles

import (
	"context"

	"github.com/google/uuid"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/reporting"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
)

// Lookup is one role source. It returns (nil, nil) when the source holds no
// usable role for the user.
type Lookup interface {
	Name() string
	LookupRole(ctx context.Context, userID uuid.UUID) (*enums.Role, error)
}

// Resolution is the outcome of resolving a role for an identity.
type Resolution struct {
	Role        *enums.Role `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// Resolver walks an ordered chain of lookups; the first source that yields a
// role wins.
type Resolver struct {
	chain    []Lookup
	reporter reporting.Reporter
}

// NewResolver builds a resolver over chain, consulted in order.
func NewResolver(reporter reporting.Reporter, chain ...Lookup) *Resolver {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Resolver{chain: chain, reporter: reporter}
}

// Resolve never fails. A lookup error is reported and the chain moves on, so
// store trouble degrades to the least-privileged result instead of an error.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) Resolution {
	if id == nil {
		return Resolution{Permissions: Derive(false, nil)}
	}
	role := r.lookup(ctx, id.UserID)
	return Resolution{Role: role, Permissions: Derive(true, role)}
}

func (r *Resolver) lookup(ctx context.Context, userID uuid.UUID) *enums.Role {
	for _, source := range r.chain {
		role, err := source.LookupRole(ctx, userID)
		if err != nil {
			r.reporter.Report(ctx, err, source.Name(), reporting.OpSelect, map[string]any{"user_id": userID.String()})
			continue
		}
		if role != nil && role.IsValid() {
			return role
		}
	}
	return nil
}
