package controllers

import (
	"net/http"

	"github.com/weglobalmusic/wgme-backend/api/middleware"
	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
)

// MeRole returns the caller's resolved role and permission set. Expects the
// ResolveRole middleware upstream.
func MeRole(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}
		res, ok := middleware.ResolutionFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role not resolved"))
			return
		}
		responses.WriteSuccess(w, res)
	}
}
