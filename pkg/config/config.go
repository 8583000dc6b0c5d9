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
	Discord      DiscordConfig
	Scheduler    SchedulerConfig
	FeatureFlags FeatureFlagsConfig
	Ops          OpsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EVENTDECK_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"EVENTDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EVENTDECK_SERVICE_KIND" default:"scheduler-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTDECK_DB_DSN"`
	Driver string `envconfig:"EVENTDECK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTDECK_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTDECK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTDECK_DB_USER"`
	LegacyPassword string `envconfig:"EVENTDECK_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTDECK_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTDECK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTDECK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"EVENTDECK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EVENTDECK_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DiscordConfig struct {
	BotToken    string        `envconfig:"EVENTDECK_DISCORD_BOT_TOKEN" required:"true"`
	CallTimeout time.Duration `envconfig:"EVENTDECK_DISCORD_CALL_TIMEOUT" default:"15s"`
	AppBaseURL  string        `envconfig:"EVENTDECK_APP_BASE_URL" default:"http://localhost:3000"`
}

// SchedulerConfig carries the tunables for the event lifecycle loop.
type SchedulerConfig struct {
	TickInterval         time.Duration `envconfig:"EVENTDECK_SCHEDULER_TICK_INTERVAL" default:"1m"`
	TimeZone             string        `envconfig:"EVENTDECK_SCHEDULER_TIMEZONE" default:"UTC"`
	AttendanceCheckHour  int           `envconfig:"EVENTDECK_ATTENDANCE_CHECK_HOUR" default:"17"`
	AttendanceWindow     time.Duration `envconfig:"EVENTDECK_ATTENDANCE_CHECK_WINDOW" default:"5m"`
	ReactionSyncTrailing time.Duration `envconfig:"EVENTDECK_REACTION_SYNC_TRAILING" default:"24h"`
	ReactionPageLimit    int           `envconfig:"EVENTDECK_REACTION_PAGE_LIMIT" default:"100"`
	AttendEmoji          string        `envconfig:"EVENTDECK_ATTEND_EMOJI" default:"✅"`
	SeedEmoji            []string      `envconfig:"EVENTDECK_SEED_EMOJI" default:"✅,❌,🕒"`
}

// Location resolves the configured IANA timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.TimeZone)
}

func (s SchedulerConfig) validate() error {
	if s.AttendanceCheckHour < 0 || s.AttendanceCheckHour > 23 {
		return fmt.Errorf("attendance check hour must be 0-23, got %d", s.AttendanceCheckHour)
	}
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", s.TimeZone, err)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EVENTDECK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EVENTDECK_AUTO_MIGRATE" default:"false"`
}

type OpsConfig struct {
	Port string `envconfig:"EVENTDECK_OPS_PORT" default:"9090"`
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
