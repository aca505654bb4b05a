package config

// EnvPrefix is handed to envconfig; every field carries its full variable name as tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LogFormatConsole = "console"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvUseSQLite           = "STOREFRONT_USE_SQLITE"
	EnvCollisionFailClosed = "STOREFRONT_COLLISION_FAIL_CLOSED"

	EnvGCPProjectID      = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubClicksTopic = "STOREFRONT_PUBSUB_CLICKS_TOPIC"

	EnvCartSessionTTL = "STOREFRONT_CART_SESSION_TTL"

	EnvShortlinkReservedPaths = "STOREFRONT_SHORTLINK_RESERVED_PATHS"
	EnvShortlinkBaseLength    = "STOREFRONT_SHORTLINK_BASE_LENGTH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// DefaultReservedPaths are the storefront's own top-level routes.
var DefaultReservedPaths = []string{
	"admin",
	"api",
	"about",
	"account",
	"assets",
	"blog",
	"cart",
	"certificates",
	"checkout",
	"contact",
	"health",
	"login",
	"logout",
	"metrics",
	"orders",
	"products",
	"projects",
	"register",
	"shop",
	"static",
}
