package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BAGELBOT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv        = "BAGELBOT_APP_ENV"
	EnvDBDSN         = "BAGELBOT_DB_DSN"
	EnvDBDriver      = "BAGELBOT_DB_DRIVER"
	EnvVendorBaseURL = "BAGELBOT_VENDOR_BASE_URL"
	EnvVendorID      = "BAGELBOT_VENDOR_ID"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Vendor       VendorConfig
	Monitor      MonitorConfig
	Session      SessionConfig
	Ops          OpsConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BAGELBOT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"BAGELBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAGELBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"BAGELBOT_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"BAGELBOT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"BAGELBOT_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"BAGELBOT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"BAGELBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAGELBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

const defaultSQLitePath = "./data/bagelbot.db"

func (db *DBConfig) ensureDSN() error {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	switch driver {
	case DriverSQLite:
		if db.DSN == "" {
			db.DSN = defaultSQLitePath
		}
	case DriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required when %s=postgres", EnvDBDSN, EnvDBDriver)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	db.Driver = driver
	return nil
}

func (db DBConfig) IsSQLite() bool {
	return db.Driver == DriverSQLite
}

// RedisConfig is optional; the run lock is skipped when no URL is set.
type RedisConfig struct {
	URL          string        `envconfig:"BAGELBOT_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"BAGELBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAGELBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAGELBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"BAGELBOT_REDIS_LOCK_TTL" default:"15m"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type VendorConfig struct {
	BaseURL     string        `envconfig:"BAGELBOT_VENDOR_BASE_URL" required:"true"`
	VendorID    string        `envconfig:"BAGELBOT_VENDOR_ID" required:"true"`
	HTTPTimeout time.Duration `envconfig:"BAGELBOT_VENDOR_HTTP_TIMEOUT" default:"10s"`
}

type MonitorConfig struct {
	PollInterval  time.Duration `envconfig:"BAGELBOT_MONITOR_POLL_INTERVAL" default:"5s"`
	MaxIterations int           `envconfig:"BAGELBOT_MONITOR_MAX_ITERATIONS" default:"120"`
}

type SessionConfig struct {
	CookieJar string `envconfig:"BAGELBOT_SESSION_COOKIE_JAR" default:"./data/cookies.json"`
}

type OpsConfig struct {
	Enabled bool   `envconfig:"BAGELBOT_OPS_ENABLED" default:"false"`
	Addr    string `envconfig:"BAGELBOT_OPS_ADDR" default:":9090"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAGELBOT_AUTO_MIGRATE" default:"false"`
}
