package config

// EnvPrefix namespaces envconfig lookups. Tagged keys resolve through the
// envconfig alt-name fallback.
const EnvPrefix = "THRIFTDROP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "THRIFTDROP_APP_ENV"
	EnvPort     = "THRIFTDROP_APP_PORT"
	EnvLogLevel = "THRIFTDROP_LOG_LEVEL"

	EnvDBDSN    = "THRIFTDROP_DB_DSN"
	EnvDBDriver = "THRIFTDROP_DB_DRIVER"
	EnvDBHost   = "THRIFTDROP_DB_HOST"
	EnvDBUser   = "THRIFTDROP_DB_USER"
	EnvDBName   = "THRIFTDROP_DB_NAME"

	EnvRedisURL = "THRIFTDROP_REDIS_URL"

	EnvJWTSecret  = "THRIFTDROP_JWT_SECRET"
	EnvJWTIssuer  = "THRIFTDROP_JWT_ISSUER"
	EnvJWTExpMins = "THRIFTDROP_JWT_EXPIRATION_MINUTES"

	EnvWebhookSecret   = "THRIFTDROP_WEBHOOK_SECRET"
	EnvWebhookGuardTTL = "THRIFTDROP_WEBHOOK_GUARD_TTL"

	EnvGCPProjectID      = "THRIFTDROP_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "THRIFTDROP_PUBSUB_DOMAIN_TOPIC"

	EnvCronStaleWebhookThreshold = "THRIFTDROP_CRON_STALE_WEBHOOK_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
