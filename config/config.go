package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// WhatsApp session
	WhatsApp WhatsAppConfig

	// Schedule document storage
	Store StoreConfig

	// Redis (optional: reminder ledger + chat directory persistence)
	Redis RedisConfig

	// HTTP liveness server
	HTTP HTTPConfig

	// Scheduler
	Scheduler SchedulerConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// WhatsAppConfig holds WhatsApp session settings.
type WhatsAppConfig struct {
	// SessionDB is the SQLite file holding whatsmeow credentials and keys.
	SessionDB string

	// PairPhone, when set and no credentials exist yet, requests a pairing
	// code for this number (E.164 digits, no plus sign).
	PairPhone string

	// ReconnectMaxAttempts bounds the reconnect loop per disconnect event.
	ReconnectMaxAttempts int

	// ReconnectMaxDelay caps the backoff between reconnect attempts.
	ReconnectMaxDelay time.Duration
}

// StoreBackend selects where the schedule document lives.
type StoreBackend string

const (
	// StoreFile keeps the document in a local JSON file.
	StoreFile StoreBackend = "file"

	// StorePostgres keeps the document in a single JSONB row. Useful on
	// hosts with ephemeral disks.
	StorePostgres StoreBackend = "postgres"
)

// StoreConfig holds schedule document storage settings.
type StoreConfig struct {
	Backend StoreBackend

	// FilePath is the JSON document path for the file backend.
	FilePath string

	// DatabaseURL is the Postgres connection string for the postgres backend.
	DatabaseURL string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address in "host:port" format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HTTPConfig holds liveness server settings.
type HTTPConfig struct {
	Host string
	Port int
}

// SchedulerConfig holds reminder scheduler settings.
type SchedulerConfig struct {
	// DigestCron fires the morning schedule broadcast.
	DigestCron string

	// AlertCron drives the per-minute class alert check.
	AlertCron string

	// AlertLeadMinutes is how many minutes before a class the alert fires.
	AlertLeadMinutes int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App:       loadAppConfig(),
		WhatsApp:  loadWhatsAppConfig(),
		Store:     loadStoreConfig(),
		Redis:     loadRedisConfig(),
		HTTP:      loadHTTPConfig(),
		Scheduler: loadSchedulerConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	return AppConfig{
		Name:            getEnv("APP_NAME", "kuliahbot"),
		Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
		Debug:           getEnvBool("APP_DEBUG", false),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadWhatsAppConfig() WhatsAppConfig {
	return WhatsAppConfig{
		SessionDB:            getEnv("WA_SESSION_DB", "session.db"),
		PairPhone:            getEnv("WA_PAIR_PHONE", ""),
		ReconnectMaxAttempts: getEnvInt("WA_RECONNECT_MAX_ATTEMPTS", 10),
		ReconnectMaxDelay:    getEnvDuration("WA_RECONNECT_MAX_DELAY", time.Minute),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:     StoreBackend(getEnv("STORE_BACKEND", string(StoreFile))),
		FilePath:    getEnv("STORE_FILE_PATH", "kuliah.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  getEnvBool("REDIS_ENABLED", false),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host: getEnv("HTTP_HOST", "0.0.0.0"),
		Port: getEnvInt("HTTP_PORT", 8080),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DigestCron:       getEnv("DIGEST_CRON", "0 5 * * *"),
		AlertCron:        getEnv("ALERT_CRON", "*/1 * * * *"),
		AlertLeadMinutes: getEnvInt("ALERT_LEAD_MINUTES", 5),
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	var errs []string

	switch c.App.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Sprintf("APP_ENV must be development or production, got %q", c.App.Environment))
	}

	switch c.Store.Backend {
	case StoreFile:
		if c.Store.FilePath == "" {
			errs = append(errs, "STORE_FILE_PATH is required for the file backend")
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND must be file or postgres, got %q", c.Store.Backend))
	}

	if c.WhatsApp.SessionDB == "" {
		errs = append(errs, "WA_SESSION_DB cannot be empty")
	}
	if c.Scheduler.AlertLeadMinutes < 0 {
		errs = append(errs, "ALERT_LEAD_MINUTES cannot be negative")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("HTTP_PORT out of range: %d", c.HTTP.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction returns true in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// ─────────────────────────────────────────────────────────────────────────────
// ENV HELPERS
// ─────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
