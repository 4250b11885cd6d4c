package middleware

import (
	"net/http"
	"strings"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	pkgauth "github.com/weglobalmusic/wgme-backend/pkg/auth"
	"github.com/weglobalmusic/wgme-backend/pkg/auth/session"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
)

// Auth verifies the identity provider's bearer token, rejects logged-out
// sessions, and stores the caller's Identity on the request context.
func Auth(cfg config.JWTConfig, revocations session.RevocationChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, _ := claims.UserID()

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.SessionID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session"))
					return
				}
				if revoked {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session has ended"))
					return
				}
			}

			ctx := identity.WithIdentity(r.Context(), &identity.Identity{
				UserID:    userID,
				Email:     claims.Email,
				SessionID: claims.SessionID,
			})
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
				if claims.SessionID != "" {
					ctx = logg.WithSessionID(ctx, claims.SessionID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
