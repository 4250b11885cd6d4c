package routes

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weglobalmusic/wgme-backend/api/controllers"
	"github.com/weglobalmusic/wgme-backend/api/middleware"
	"github.com/weglobalmusic/wgme-backend/internal/identity"
	"github.com/weglobalmusic/wgme-backend/internal/profiles"
	"github.com/weglobalmusic/wgme-backend/internal/referrals"
	"github.com/weglobalmusic/wgme-backend/internal/roles"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/metrics"
	"github.com/weglobalmusic/wgme-backend/pkg/pagination"
	"github.com/weglobalmusic/wgme-backend/pkg/redis"
)

type sessionManager interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

type referralService interface {
	ValidateReferralCode(ctx context.Context, code string) *referrals.CodeMatch
	CodeView(ctx context.Context, id *identity.Identity) (*referrals.CodeView, error)
	ListReferralPage(ctx context.Context, id *identity.Identity, params pagination.Params) (*referrals.ReferralPage, error)
	Stats(ctx context.Context, id *identity.Identity) (*referrals.Stats, error)
	Redeem(ctx context.Context, id *identity.Identity, code string) (*referrals.ReferralView, error)
}

type profileService interface {
	GetProfile(ctx context.Context, id *identity.Identity) (*profiles.ProfileDTO, error)
	UpdateProfile(ctx context.Context, id *identity.Identity, input profiles.UpdateProfileInput) (*profiles.ProfileDTO, error)
	UploadAvatar(ctx context.Context, id *identity.Identity, body io.Reader) (string, error)
}

type roleResolver interface {
	Resolve(ctx context.Context, id *identity.Identity) roles.Resolution
}

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	redis.IdempotencyStore
	redis.RateLimiter
}

// Deps carries everything the router mounts. Pingers is keyed by the
// dependency name reported on /health/ready.
type Deps struct {
	Pingers   map[string]controllers.Pinger
	Redis     redisStore
	Sessions  sessionManager
	Resolver  roleResolver
	Referrals referralService
	Profiles  profileService
	Metrics   *metrics.HTTPMetrics
	Gatherer  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, deps.Metrics),
	)

	validatePolicy := middleware.NewRateLimitPolicy(
		"referral-validate",
		cfg.AuthRateLimit.ValidateWindow,
		cfg.AuthRateLimit.ValidateIPLimit,
	).TrustProxyHops(cfg.AuthRateLimit.TrustedProxyHops)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.With(middleware.RateLimit(validatePolicy, deps.Redis, logg)).
			Get("/referrals/{code}", controllers.ReferralValidate(deps.Referrals, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.ResolveRole(deps.Resolver, logg))

		r.Get("/me/role", controllers.MeRole(logg))
		r.Post("/auth/logout", controllers.AuthLogout(deps.Sessions, logg))

		r.Route("/referrals", func(r chi.Router) {
			r.Get("/code", controllers.ReferralCode(deps.Referrals, logg))
			r.Get("/", controllers.ReferralList(deps.Referrals, logg))
			r.With(middleware.Idempotency(deps.Redis, logg)).
				Post("/", controllers.ReferralRedeem(deps.Referrals, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(deps.Profiles, logg))
			r.Put("/", controllers.ProfileUpdate(deps.Profiles, logg))
			r.Post("/avatar", controllers.ProfileAvatarUpload(deps.Profiles, cfg.Storage.MaxAvatarBytes(), logg))
		})

		r.With(middleware.RequirePermission(deps.Resolver, roles.PermBeatsUpload, logg)).
			Get("/producer/ping", controllers.ProducerPing())
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequirePermission(deps.Resolver, roles.PermAdminAccess, logg))
		r.Get("/ping", controllers.AdminPing())
	})

	return r
}
