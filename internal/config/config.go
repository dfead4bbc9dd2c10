// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values used when the corresponding environment variable is unset.
const (
	DefaultSQLitePath          = "data/relayline.db"
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultProbeTimeout        = 5 * time.Second
)

// Config is an immutable snapshot of the environment, assembled once at
// startup. Nothing in the process mutates it afterwards.
type Config struct {
	// Environment is the deployment environment (development, staging, production).
	Environment string

	// Port is the HTTP listen port.
	Port string

	// DatabaseURL is a full PostgreSQL connection string. When set it takes
	// precedence over the individual DB_* variables.
	DatabaseURL string

	// Individual PostgreSQL connection parameters.
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	DBSchema   string

	// SQLitePath is the file path used for the SQLite fallback database.
	SQLitePath string

	// ForceSQLite selects SQLite unconditionally, skipping the PostgreSQL probe.
	ForceSQLite bool

	// PreferSQLite probes SQLite first but still falls back to PostgreSQL.
	PreferSQLite bool

	// RedisURL is the Redis connection string for the cache role.
	RedisURL string

	// SecretKey is the application secret.
	SecretKey string

	// JWTSecretKey signs admin API tokens.
	JWTSecretKey string

	// HealthCheckInterval is how often the health monitor re-probes the
	// active database connection.
	HealthCheckInterval time.Duration

	// ProbeTimeout bounds each connectivity probe.
	ProbeTimeout time.Duration

	// Feature toggles that depend on Redis being configured.
	RateLimitEnabled bool
	TaskQueueEnabled bool

	// Presence of third-party credentials; used only to derive feature flags.
	OpenAIAPIKey     string
	StripeSecretKey  string
	TelegramBotToken string

	// Telemetry.
	OTELEnabled  bool
	OTLPEndpoint string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	dbPort, _ := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))

	interval := DefaultHealthCheckInterval
	if raw := os.Getenv("HEALTH_CHECK_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	return Config{
		Environment:         getEnvOrDefault("APP_ENV", "development"),
		Port:                getEnvOrDefault("APP_PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBHost:              getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:              dbPort,
		DBName:              getEnvOrDefault("DB_NAME", "relayline"),
		DBUser:              getEnvOrDefault("DB_USER", "relayline"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBSSLMode:           getEnvOrDefault("DB_SSL_MODE", "disable"),
		DBSchema:            os.Getenv("DB_SCHEMA"),
		SQLitePath:          getEnvOrDefault("SQLITE_DATABASE_URL", DefaultSQLitePath),
		ForceSQLite:         envBool("FORCE_SQLITE"),
		PreferSQLite:        envBool("PREFER_SQLITE"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SecretKey:           os.Getenv("SECRET_KEY"),
		JWTSecretKey:        os.Getenv("JWT_SECRET_KEY"),
		HealthCheckInterval: interval,
		ProbeTimeout:        DefaultProbeTimeout,
		RateLimitEnabled:    envBool("RATE_LIMIT_ENABLED"),
		TaskQueueEnabled:    envBool("TASK_QUEUE_ENABLED"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		OTELEnabled:         envBool("OTEL_ENABLED"),
		OTLPEndpoint:        getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// IsProduction reports whether the app runs in a production environment.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresURL returns the PostgreSQL connection string, either DATABASE_URL
// verbatim or one assembled from the individual DB_* parameters.
func (c Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
