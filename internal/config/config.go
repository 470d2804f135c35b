package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Discord    DiscordConfig
	Directory  DirectoryConfig
	Reconciler ReconcilerConfig
	Throttle   ThrottleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin authentication parameters. AdminPasswordHash is
// a bcrypt hash; when empty the admin surface rejects every login.
type AuthConfig struct {
	AdminPasswordHash string
	JWTSecret         string
	SessionTTLMinutes int
}

// DiscordConfig locates the webhook that renders the ticket queue.
type DiscordConfig struct {
	WebhookURL            string
	RequestTimeoutSeconds int
}

// DirectoryConfig locates the external user identity API.
type DirectoryConfig struct {
	BaseURL               string
	RequestTimeoutSeconds int
}

// ReconcilerConfig tunes the discord reconciliation host.
type ReconcilerConfig struct {
	Workers              int
	QueueSize            int
	OpTimeoutSeconds     int
	ShutdownGraceSeconds int
}

// ThrottleConfig bounds ticket creation per client within a fixed window.
type ThrottleConfig struct {
	Limit         int
	WindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "mentor-queue"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			AdminPasswordHash: os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 180),
		},
		Discord: DiscordConfig{
			WebhookURL:            os.Getenv("DISCORD_WEBHOOK_URL"),
			RequestTimeoutSeconds: getEnvAsInt("DISCORD_REQUEST_TIMEOUT_SECONDS", 10),
		},
		Directory: DirectoryConfig{
			BaseURL:               getEnv("DIRECTORY_BASE_URL", "https://api.neos.com"),
			RequestTimeoutSeconds: getEnvAsInt("DIRECTORY_REQUEST_TIMEOUT_SECONDS", 10),
		},
		Reconciler: ReconcilerConfig{
			Workers:              getEnvAsInt("RECONCILER_WORKERS", 4),
			QueueSize:            getEnvAsInt("RECONCILER_QUEUE_SIZE", 64),
			OpTimeoutSeconds:     getEnvAsInt("RECONCILER_OP_TIMEOUT_SECONDS", 15),
			ShutdownGraceSeconds: getEnvAsInt("RECONCILER_SHUTDOWN_GRACE_SECONDS", 10),
		},
		Throttle: ThrottleConfig{
			Limit:         getEnvAsInt("THROTTLE_LIMIT", 5),
			WindowSeconds: getEnvAsInt("THROTTLE_WINDOW_SECONDS", 60),
		},
	}

	return cfg, nil
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

// Timeout returns the directory client timeout.
func (d DirectoryConfig) Timeout() time.Duration {
	if d.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the discord client timeout.
func (d DiscordConfig) Timeout() time.Duration {
	if d.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.RequestTimeoutSeconds) * time.Second
}

// OpTimeout returns the per-reconciliation timeout.
func (r ReconcilerConfig) OpTimeout() time.Duration {
	if r.OpTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(r.OpTimeoutSeconds) * time.Second
}

// ShutdownGrace returns how long Stop waits for in-flight reconciliation.
func (r ReconcilerConfig) ShutdownGrace() time.Duration {
	if r.ShutdownGraceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.ShutdownGraceSeconds) * time.Second
}

// Window returns the throttle window duration.
func (t ThrottleConfig) Window() time.Duration {
	if t.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(t.WindowSeconds) * time.Second
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
