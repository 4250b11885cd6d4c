package controllers

import (
	"context"
	"net/http"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
)

type sessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) error
}

// AuthLogout denylists the caller's session so its outstanding access tokens
// stop working before they expire.
func AuthLogout(revoker sessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		if id == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}
		if id.SessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token carries no session id"))
			return
		}
		if err := revoker.Revoke(r.Context(), id.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
