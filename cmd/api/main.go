package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weglobalmusic/wgme-backend/api/controllers"
	"github.com/weglobalmusic/wgme-backend/api/routes"
	"github.com/weglobalmusic/wgme-backend/internal/profiles"
	"github.com/weglobalmusic/wgme-backend/internal/referrals"
	"github.com/weglobalmusic/wgme-backend/internal/reporting"
	"github.com/weglobalmusic/wgme-backend/internal/roles"
	"github.com/weglobalmusic/wgme-backend/pkg/auth/session"
	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/db"
	"github.com/weglobalmusic/wgme-backend/pkg/instance"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/metrics"
	"github.com/weglobalmusic/wgme-backend/pkg/migrate"
	"github.com/weglobalmusic/wgme-backend/pkg/outbox"
	"github.com/weglobalmusic/wgme-backend/pkg/redis"
	"github.com/weglobalmusic/wgme-backend/pkg/storage/supabase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT.AccessTTL())
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	reporter := reporting.New(logg, metrics.NewRecordStoreMetrics(prometheus.DefaultRegisterer))
	resolver := roles.NewResolver(reporter, roles.NewDefaultResolverChain(dbClient.DB())...)

	referralService, err := referrals.NewService(referrals.ServiceParams{
		Tx:       dbClient,
		Repo:     referrals.NewRepository(dbClient.DB()),
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Reporter: reporter,
		Logger:   logg,
		Config:   cfg.Referral,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create referral service", err)
		os.Exit(1)
	}

	// Avatar uploads answer DEPENDENCY_ERROR until storage is configured.
	var uploader supabase.Uploader
	storageClient, err := supabase.NewClient(cfg.Storage)
	switch {
	case err == nil:
		uploader = storageClient
	case errors.Is(err, supabase.ErrNotConfigured):
		logg.Warn(context.Background(), "supabase storage not configured, avatar uploads disabled")
	default:
		logg.Error(context.Background(), "failed to create storage client", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:     profiles.NewRepository(dbClient.DB()),
		Storage:  uploader,
		Reporter: reporter,
		Config:   cfg.Storage,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Pingers: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			Redis:     redisClient,
			Sessions:  sessionManager,
			Resolver:  resolver,
			Referrals: referralService,
			Profiles:  profileService,
			Metrics:   metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			Gatherer:  prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
