package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it is informational.
const EnvPrefix = "WGME"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv             = "WGME_APP_ENV"
	EnvPort               = "WGME_APP_PORT"
	EnvDBDSN              = "WGME_DB_DSN"
	EnvDBHost             = "WGME_DB_HOST"
	EnvDBUser             = "WGME_DB_USER"
	EnvDBName             = "WGME_DB_NAME"
	EnvRedisURL           = "WGME_REDIS_URL"
	EnvJWTSecret          = "WGME_JWT_SECRET"
	EnvJWTIssuer          = "WGME_JWT_ISSUER"
	EnvUseSQLite          = "WGME_USE_SQLITE"
	EnvReferralCodePrefix = "WGME_REFERRAL_CODE_PREFIX"
	EnvReferralCodeLength = "WGME_REFERRAL_CODE_LENGTH"
	EnvReferralLinkOrigin = "WGME_REFERRAL_LINK_ORIGIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
