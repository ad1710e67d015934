package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Session      SessionConfig
	Tickets      TicketsConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	Debug                 bool
	AllowOrigins          string
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. With URL and Addr both empty
// sessions stay in process memory.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior. Service and Version are stamped
// on every entry.
type LoggerConfig struct {
	Level   string
	Format  string // json or console
	Service string
	Version string
}

// AuthConfig defines the single sign-on handshake parameters.
type AuthConfig struct {
	SSOLoginURL string
	SSOSecret   string
	DebugUser   string
}

// SessionConfig controls the session cookie and its server-side lifetime.
type SessionConfig struct {
	CookieName      string
	LifetimeMinutes int
	Secure          bool
	SweepSpec       string // cron schedule purging expired in-memory sessions
}

// TicketsConfig tunes the public ticket endpoints.
type TicketsConfig struct {
	OpenRateLimitPerMinute int
}

// NotificationConfig holds the optional outbound webhook.
type NotificationConfig struct {
	WebhookURL            string
	WebhookTimeoutSeconds int
}

// Load reads configuration from .env, the environment and finally the
// command line, later sources overriding earlier ones.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tutoring-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Debug:                 getEnvAsBool("APP_DEBUG", false),
			AllowOrigins:          getEnv("HTTP_ALLOW_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			SSOLoginURL: getEnv("AUTH_SSO_LOGIN_URL", "https://auth.unomaha.edu/idp/Authn/UserPassword"),
			SSOSecret:   getEnv("AUTH_SSO_SECRET", "dev-secret"),
			DebugUser:   getEnv("AUTH_DEBUG_USER", "test@unomaha.edu"),
		},
		Session: SessionConfig{
			CookieName:      getEnv("SESSION_COOKIE_NAME", "portal_session"),
			LifetimeMinutes: getEnvAsInt("SESSION_LIFETIME_MINUTES", 30),
			Secure:          getEnvAsBool("SESSION_COOKIE_SECURE", false),
			SweepSpec:       getEnv("SESSION_SWEEP_SPEC", "@every 10m"),
		},
		Tickets: TicketsConfig{
			OpenRateLimitPerMinute: getEnvAsInt("TICKETS_OPEN_RATE_LIMIT", 10),
		},
		Notification: NotificationConfig{
			WebhookURL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
	}

	if err := applyFlags(cfg, args); err != nil {
		return nil, err
	}
	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Version = cfg.App.Version
	if cfg.App.Debug {
		cfg.Logger.Level = "debug"
	}
	return cfg, nil
}

func applyFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("portal", pflag.ContinueOnError)
	fs.StringVar(&cfg.App.Host, "host", cfg.App.Host, "interface the server binds to")
	fs.StringVarP(&cfg.App.Port, "port", "p", cfg.App.Port, "port where the server will run")
	fs.StringVarP(&cfg.Postgres.DSN, "dsn", "d", cfg.Postgres.DSN, "postgres connection string (empty runs in memory)")
	fs.BoolVar(&cfg.App.Debug, "debug", cfg.App.Debug, "run the server in debug mode")
	fs.BoolVar(&cfg.Postgres.RunMigrations, "migrate", cfg.Postgres.RunMigrations, "apply SQL migrations on startup")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Lifetime returns the server-side session TTL.
func (s SessionConfig) Lifetime() time.Duration {
	if s.LifetimeMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.LifetimeMinutes) * time.Minute
}

// WebhookTimeout returns the outbound webhook deadline.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
