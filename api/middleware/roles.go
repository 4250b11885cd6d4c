package middleware

import (
	"context"
	"net/http"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/roles"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
)

type roleResolver interface {
	Resolve(ctx context.Context, id *identity.Identity) roles.Resolution
}

// ResolveRole resolves the caller's role once per request and stores it for
// later guards and handlers. It never rejects a request.
func ResolveRole(resolver roleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := ResolutionFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}
			res := resolver.Resolve(ctx, identity.FromContext(ctx))
			ctx = withResolution(ctx, res)
			if logg != nil && res.Role != nil {
				ctx = logg.WithActorRole(ctx, res.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects callers whose resolved permissions lack perm.
// Anonymous callers get 401, signed-in callers without the permission get 403.
func RequirePermission(resolver roleResolver, perm roles.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	resolve := ResolveRole(resolver, logg)
	return func(next http.Handler) http.Handler {
		guard := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity.FromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			res, _ := ResolutionFromContext(r.Context())
			if !res.Permissions.Has(perm) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission required").
					WithDetails(map[string]any{"permission": string(perm)}))
				return
			}
			next.ServeHTTP(w, r)
		})
		return resolve(guard)
	}
}
