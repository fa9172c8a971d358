package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Webhooks     WebhooksConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"THRIFTDROP_APP_ENV" required:"true"`
	Port         string   `envconfig:"THRIFTDROP_APP_PORT" required:"true"`
	CORSOrigins  []string `envconfig:"THRIFTDROP_CORS_ALLOWED_ORIGINS"`
	LogLevel     string   `envconfig:"THRIFTDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"THRIFTDROP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"THRIFTDROP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"THRIFTDROP_DB_DSN"`
	Driver string `envconfig:"THRIFTDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"THRIFTDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"THRIFTDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"THRIFTDROP_DB_USER"`
	LegacyPassword string `envconfig:"THRIFTDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"THRIFTDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"THRIFTDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"THRIFTDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"THRIFTDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"THRIFTDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"THRIFTDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"THRIFTDROP_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the configured driver targets a local sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"THRIFTDROP_REDIS_URL"`
	Address      string        `envconfig:"THRIFTDROP_REDIS_ADDR"`
	Password     string        `envconfig:"THRIFTDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"THRIFTDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"THRIFTDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"THRIFTDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"THRIFTDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"THRIFTDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"THRIFTDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"THRIFTDROP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"THRIFTDROP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"THRIFTDROP_JWT_EXPIRATION_MINUTES" default:"480"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"THRIFTDROP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"THRIFTDROP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"THRIFTDROP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"THRIFTDROP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"THRIFTDROP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"THRIFTDROP_AUTO_MIGRATE" default:"false"`
	Metrics     bool `envconfig:"THRIFTDROP_METRICS_ENABLED" default:"true"`
}

type WebhooksConfig struct {
	Secret       string        `envconfig:"THRIFTDROP_WEBHOOK_SECRET"`
	GuardEnabled bool          `envconfig:"THRIFTDROP_WEBHOOK_GUARD_ENABLED" default:"true"`
	GuardTTL     time.Duration `envconfig:"THRIFTDROP_WEBHOOK_GUARD_TTL" default:"720h"`
}

// SignatureRequired reports whether inbound webhooks must carry an HMAC signature.
func (w WebhooksConfig) SignatureRequired() bool {
	return strings.TrimSpace(w.Secret) != ""
}

type GCPConfig struct {
	ProjectID string `envconfig:"THRIFTDROP_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"THRIFTDROP_PUBSUB_DOMAIN_TOPIC" default:"td-domain-events"`
	OrdersTopic string `envconfig:"THRIFTDROP_PUBSUB_ORDERS_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"THRIFTDROP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"THRIFTDROP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"THRIFTDROP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"THRIFTDROP_CRON_INTERVAL" default:"1h"`
	LockTTL               time.Duration `envconfig:"THRIFTDROP_CRON_LOCK_TTL" default:"15m"`
	NotificationRetention time.Duration `envconfig:"THRIFTDROP_CRON_NOTIFICATION_RETENTION" default:"720h"`
	OutboxRetention       time.Duration `envconfig:"THRIFTDROP_CRON_OUTBOX_RETENTION" default:"720h"`
	StaleWebhookThreshold time.Duration `envconfig:"THRIFTDROP_CRON_STALE_WEBHOOK_THRESHOLD" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
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
