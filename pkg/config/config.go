package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Referral      ReferralConfig
	Storage       StorageConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Referral.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"WGME_APP_ENV" required:"true"`
	Port         string   `envconfig:"WGME_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"WGME_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"WGME_LOG_WARN_STACK" default:"false"`
	// Browser origins allowed to call the API, comma separated.
	CORSOrigins  []string `envconfig:"WGME_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WGME_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"WGME_DB_DSN"`
	Driver     string `envconfig:"WGME_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"WGME_DB_SQLITE_PATH" default:"wgme.db"`

	LegacyHost     string `envconfig:"WGME_DB_HOST"`
	LegacyPort     int    `envconfig:"WGME_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WGME_DB_USER"`
	LegacyPassword string `envconfig:"WGME_DB_PASSWORD"`
	LegacyName     string `envconfig:"WGME_DB_NAME"`
	LegacySSLMode  string `envconfig:"WGME_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WGME_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WGME_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WGME_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WGME_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WGME_REDIS_URL"`
	Address      string        `envconfig:"WGME_REDIS_ADDR"`
	Password     string        `envconfig:"WGME_REDIS_PASSWORD"`
	DB           int           `envconfig:"WGME_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WGME_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WGME_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WGME_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WGME_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WGME_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how access tokens minted by the identity provider are verified.
type JWTConfig struct {
	Secret   string `envconfig:"WGME_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"WGME_JWT_ISSUER"`
	Audience string `envconfig:"WGME_JWT_AUDIENCE" default:"authenticated"`
	// Used when minting tokens locally (dev tooling and tests).
	ExpirationMinutes int `envconfig:"WGME_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type ReferralConfig struct {
	CodePrefix     string `envconfig:"WGME_REFERRAL_CODE_PREFIX" default:"WGME-"`
	CodeLength     int    `envconfig:"WGME_REFERRAL_CODE_LENGTH" default:"6"`
	LinkOrigin     string `envconfig:"WGME_REFERRAL_LINK_ORIGIN" default:"http://localhost:5173"`
	ListLimit      int    `envconfig:"WGME_REFERRAL_LIST_LIMIT" default:"50"`
	ReconcileBatch int    `envconfig:"WGME_REFERRAL_RECONCILE_BATCH" default:"500"`
}

func (r ReferralConfig) validate() error {
	if r.CodeLength <= 0 {
		return fmt.Errorf("%s must be positive", EnvReferralCodeLength)
	}
	if r.LinkOrigin != "" {
		if _, err := url.Parse(r.LinkOrigin); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReferralLinkOrigin, err)
		}
	}
	return nil
}

type StorageConfig struct {
	SupabaseURL  string        `envconfig:"WGME_SUPABASE_URL"`
	ServiceKey   string        `envconfig:"WGME_SUPABASE_SERVICE_KEY"`
	AvatarBucket string        `envconfig:"WGME_STORAGE_AVATAR_BUCKET" default:"avatars"`
	MaxAvatarMB  int           `envconfig:"WGME_STORAGE_MAX_AVATAR_MB" default:"5"`
	Timeout      time.Duration `envconfig:"WGME_STORAGE_TIMEOUT" default:"30s"`
}

// MaxAvatarBytes returns the avatar size ceiling in bytes.
func (s StorageConfig) MaxAvatarBytes() int64 {
	if s.MaxAvatarMB <= 0 {
		return 0
	}
	return int64(s.MaxAvatarMB) << 20
}

type AuthRateLimitConfig struct {
	ValidateWindow  time.Duration `envconfig:"WGME_RATE_LIMIT_VALIDATE_WINDOW" default:"1m"`
	ValidateIPLimit int           `envconfig:"WGME_RATE_LIMIT_VALIDATE_IP_LIMIT" default:"30"`

	// Proxies in front of the API that append to X-Forwarded-For. Zero keys
	// limits on the TCP peer address.
	TrustedProxyHops int `envconfig:"WGME_RATE_LIMIT_TRUSTED_PROXY_HOPS" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WGME_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WGME_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"WGME_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ReferralTopic string `envconfig:"WGME_PUBSUB_REFERRAL_TOPIC" default:"wgme-referral-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WGME_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WGME_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WGME_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"WGME_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"WGME_CRON_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
