package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the service.
type Config struct {
	AppPort         string
	ShutdownTimeout time.Duration
	CORSOrigins     string
	LogLevel        string

	DBDriver    string // postgres or sqlite
	DatabaseDSN string

	UploadDir      string
	MaxUploadFiles int
	MaxUploadSize  int64 // bytes per file

	RabbitMQURL   string // empty disables catalog events
	RabbitMQQueue string

	RedisAddr     string // empty disables the catalog cache
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret            string
	SessionTTL           time.Duration
	SessionPurgeSchedule string

	GeoLookupURL     string // empty disables geolocation
	GeoLookupTimeout time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=plastikhb port=5432 sslmode=disable")

	v.SetDefault("UPLOAD_DIR", "./uploads/products")
	v.SetDefault("MAX_UPLOAD_FILES", 8)
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "catalog_events")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "1h")

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_PURGE_SCHEDULE", "@every 1h")

	v.SetDefault("GEO_LOOKUP_URL", "https://ipapi.co/%s/json/")
	v.SetDefault("GEO_LOOKUP_TIMEOUT", "3s")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads configuration from the environment and, when present, a config.yaml in the
// working directory or /etc/plastikhb.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/plastikhb")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		ShutdownTimeout:      v.GetDuration("SHUTDOWN_TIMEOUT"),
		CORSOrigins:          v.GetString("CORS_ORIGINS"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		UploadDir:            v.GetString("UPLOAD_DIR"),
		MaxUploadFiles:       v.GetInt("MAX_UPLOAD_FILES"),
		MaxUploadSize:        v.GetInt64("MAX_UPLOAD_SIZE"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:        v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		CacheTTL:             v.GetDuration("CACHE_TTL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		SessionPurgeSchedule: v.GetString("SESSION_PURGE_SCHEDULE"),
		GeoLookupURL:         v.GetString("GEO_LOOKUP_URL"),
		GeoLookupTimeout:     v.GetDuration("GEO_LOOKUP_TIMEOUT"),
		AdminUsername:        v.GetString("ADMIN_USERNAME"),
		AdminEmail:           v.GetString("ADMIN_EMAIL"),
		AdminPassword:        v.GetString("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.MaxUploadFiles < 1 {
		return fmt.Errorf("MAX_UPLOAD_FILES must be at least 1")
	}
	if c.MaxUploadSize < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// BodyLimit is the largest request body fiber must accept to receive a full upload batch.
func (c *Config) BodyLimit() int {
	return int(c.MaxUploadSize)*c.MaxUploadFiles + 1024*1024
}
