package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	// Driver is "sqlite3" (primary) or "postgres"
	Driver string `yaml:"driver"`

	// SQLitePath is the database file path; ":memory:" for ephemeral instances
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresURL selects the Postgres search backend when set
	PostgresURL string `yaml:"postgres_url"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// RateLimitConfig holds rate limiter configuration. The limiter lives in HTTP
// middleware, outside the search core.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RedisURL          string        `yaml:"redis_url"`
	RedisPassword     string        `yaml:"redis_password"`
	RedisDB           int           `yaml:"redis_db"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	WindowDuration    time.Duration `yaml:"window_duration"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// LoadConfig loads configuration from the optional YAML file named by
// ORGDEX_CONFIG, then applies environment variable overrides.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("ORGDEX_CONFIG"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Storage: StorageConfig{
			Driver:       "sqlite3",
			SQLitePath:   "orgdex.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnLifetime: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerWindow: 100,
			WindowDuration:    time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "orgdex",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("ORGDEX_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("ORGDEX_PORT", cfg.Server.Port)
	cfg.Server.HealthPort = getEnv("ORGDEX_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.ReadTimeout = getEnvDuration("ORGDEX_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("ORGDEX_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("ORGDEX_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("ORGDEX_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Storage.Driver = getEnv("ORGDEX_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getEnv("ORGDEX_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresURL = getEnv("ORGDEX_POSTGRES_URL", cfg.Storage.PostgresURL)
	cfg.Storage.MaxOpenConns = getEnvInt("ORGDEX_DB_MAX_OPEN_CONNS", cfg.Storage.MaxOpenConns)
	cfg.Storage.MaxIdleConns = getEnvInt("ORGDEX_DB_MAX_IDLE_CONNS", cfg.Storage.MaxIdleConns)
	cfg.Storage.ConnLifetime = getEnvDuration("ORGDEX_DB_CONN_LIFETIME", cfg.Storage.ConnLifetime)

	cfg.RateLimit.Enabled = getEnvBool("ORGDEX_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RedisURL = getEnv("ORGDEX_REDIS_URL", cfg.RateLimit.RedisURL)
	cfg.RateLimit.RedisPassword = getEnv("ORGDEX_REDIS_PASSWORD", cfg.RateLimit.RedisPassword)
	cfg.RateLimit.RedisDB = getEnvInt("ORGDEX_REDIS_DB", cfg.RateLimit.RedisDB)
	cfg.RateLimit.RequestsPerWindow = getEnvInt("ORGDEX_RATELIMIT_REQUESTS", cfg.RateLimit.RequestsPerWindow)
	cfg.RateLimit.WindowDuration = getEnvDuration("ORGDEX_RATELIMIT_WINDOW", cfg.RateLimit.WindowDuration)

	cfg.Observability.LogLevel = getEnv("ORGDEX_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.MetricsEnabled = getEnvBool("ORGDEX_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("ORGDEX_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("ORGDEX_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("ORGDEX_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("ORGDEX_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("ORGDEX_OTEL_INSECURE", cfg.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Driver {
	case "sqlite3":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite3 storage")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be sqlite3 or postgres)", c.Storage.Driver)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("rate limit requests per window must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
