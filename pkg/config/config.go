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
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Cart         CartConfig
	Shortlinks   ShortlinksConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	// Comma separated list of origins allowed by CORS.
	AllowedOrigins []string `envconfig:"STOREFRONT_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ConsoleLogs reports whether logs should be human readable instead of JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, LogFormatConsole)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// Queries slower than this are logged at warn. Zero disables the check.
	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies admin tokens minted by the auth platform.
type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
	// Clock skew tolerated against the auth platform.
	Leeway time.Duration `envconfig:"STOREFRONT_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	// CollisionFailClosed treats an unreachable namespace as taken instead of free.
	CollisionFailClosed bool `envconfig:"STOREFRONT_COLLISION_FAIL_CLOSED" default:"false"`
	ClickEvents         bool `envconfig:"STOREFRONT_FEATURE_CLICK_EVENTS" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_EVENTING_IDEMPOTENCY_TTL" default:"168h"`
	// ClaimLease is how long an in-progress event blocks redeliveries.
	ClaimLease time.Duration `envconfig:"STOREFRONT_EVENTING_CLAIM_LEASE" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ClicksTopic        string `envconfig:"STOREFRONT_PUBSUB_CLICKS_TOPIC" default:"storefront-link-clicks"`
	ClicksSubscription string `envconfig:"STOREFRONT_PUBSUB_CLICKS_SUBSCRIPTION" default:"storefront-link-clicks-bq"`

	MaxOutstandingMessages int           `envconfig:"STOREFRONT_PUBSUB_MAX_OUTSTANDING_MESSAGES" default:"100"`
	PublishDelay           time.Duration `envconfig:"STOREFRONT_PUBSUB_PUBLISH_DELAY" default:"10ms"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"STOREFRONT_BIGQUERY_DATASET" default:"storefront"`
	ClicksTable string `envconfig:"STOREFRONT_BIGQUERY_CLICKS_TABLE" default:"link_clicks"`
	// AutoCreate creates a missing dataset or table at startup instead of failing.
	AutoCreate bool `envconfig:"STOREFRONT_BIGQUERY_AUTO_CREATE" default:"false"`
}

type CartConfig struct {
	SessionTTL    time.Duration `envconfig:"STOREFRONT_CART_SESSION_TTL" default:"720h"`
	SessionHeader string        `envconfig:"STOREFRONT_CART_SESSION_HEADER" default:"X-Cart-Session"`
	// Coupon code attempts allowed per session per minute; 0 disables the limit.
	CouponAttemptsPerMinute int `envconfig:"STOREFRONT_CART_COUPON_ATTEMPTS_PER_MINUTE" default:"10"`
	// Per client IP, across sessions.
	CouponAttemptsPerIPPerMinute int `envconfig:"STOREFRONT_CART_COUPON_ATTEMPTS_PER_IP_PER_MINUTE" default:"30"`
}

type ShortlinksConfig struct {
	ReservedPaths []string      `envconfig:"STOREFRONT_SHORTLINK_RESERVED_PATHS"`
	BaseLength    int           `envconfig:"STOREFRONT_SHORTLINK_BASE_LENGTH" default:"6"`
	MaxAttempts   int           `envconfig:"STOREFRONT_SHORTLINK_MAX_ATTEMPTS" default:"10"`
	LookupTimeout time.Duration `envconfig:"STOREFRONT_SHORTLINK_LOOKUP_TIMEOUT" default:"3s"`
	RecordTimeout time.Duration `envconfig:"STOREFRONT_SHORTLINK_RECORD_TIMEOUT" default:"5s"`
}

// Reserved returns the configured reserved words, falling back to the storefront's own routes.
func (s ShortlinksConfig) Reserved() []string {
	out := make([]string, 0, len(s.ReservedPaths))
	for _, p := range s.ReservedPaths {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultReservedPaths...)
	}
	return out
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = db.SQLitePath
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
