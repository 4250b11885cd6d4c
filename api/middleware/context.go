package middleware

import (
	"context"

	"github.com/weglobalmusic/wgme-backend/internal/roles"
)

type contextKey string

const ctxResolution contextKey = "role_resolution"

// ResolutionFromContext returns the role resolution computed earlier in the
// request, if any.
func ResolutionFromContext(ctx context.Context) (roles.Resolution, bool) {
	if ctx == nil {
		return roles.Resolution{}, false
	}
	res, ok := ctx.Value(ctxResolution).(roles.Resolution)
	return res, ok
}

func withResolution(ctx context.Context, res roles.Resolution) context.Context {
	return context.WithValue(ctx, ctxResolution, res)
}
