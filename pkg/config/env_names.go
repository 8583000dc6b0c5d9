package config

// EnvPrefix is passed to envconfig; variable names are fully spelled out in
// struct tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "EVENTDECK_APP_ENV"
	EnvDBDSN    = "EVENTDECK_DB_DSN"
	EnvDBHost   = "EVENTDECK_DB_HOST"
	EnvDBUser   = "EVENTDECK_DB_USER"
	EnvDBName   = "EVENTDECK_DB_NAME"
	EnvRedisURL = "EVENTDECK_REDIS_URL"
	EnvBotToken = "EVENTDECK_DISCORD_BOT_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
