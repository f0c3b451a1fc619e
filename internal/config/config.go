// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Static calendar sources.
const (
	SourceLocal  = "local"
	SourceSpaces = "spaces"
	SourceHTTP   = "http"
)

// Config holds environment-based settings
type Config struct {
	Env           string
	ServerAddress string

	// DatabaseURL enables the Postgres calendar store when set.
	DatabaseURL    string
	MigrationsPath string

	StaticSource  string
	StaticDir     string
	StaticBaseURL string

	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesPrefix    string
	SpacesAccessKey string
	SpacesSecretKey string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTPrefix    string
	// BroadcastSlugs are the mosques whose countdown is published.
	BroadcastSlugs []string

	JWTSecret         string
	AdminPasswordHash string

	DSTTablePath      string
	Timezone          string
	CacheTTL          time.Duration
	MonthlyCacheSize  int
	RamadanCacheSize  int
	SweepSchedule     string
	DSTReloadSchedule string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, after a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           getEnv("APP_ENV", EnvDevelopment),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		StaticSource:  getEnv("STATIC_SOURCE", SourceLocal),
		StaticDir:     getEnv("STATIC_DIR", "./data"),
		StaticBaseURL: os.Getenv("STATIC_BASE_URL"),

		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesPrefix:    os.Getenv("SPACES_PREFIX"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "iqamah-server"),
		MQTTPrefix:     getEnv("MQTT_TOPIC_PREFIX", "mosques"),
		BroadcastSlugs: getEnvList("BROADCAST_SLUGS"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		DSTTablePath:      os.Getenv("DST_TABLE_PATH"),
		Timezone:          getEnv("TIMEZONE", "Europe/London"),
		MonthlyCacheSize:  getEnvInt("MONTHLY_CACHE_SIZE", 180),
		RamadanCacheSize:  getEnvInt("RAMADAN_CACHE_SIZE", 45),
		SweepSchedule:     getEnv("SWEEP_SCHEDULE", "@every 5m"),
		DSTReloadSchedule: getEnv("DST_RELOAD_SCHEDULE", "@daily"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	ttl, err := getEnvDuration("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.CacheTTL = ttl

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.ServerAddress == "" {
		errs = append(errs, errors.New("SERVER_ADDRESS is required"))
	}

	switch c.StaticSource {
	case SourceLocal:
		if c.StaticDir == "" {
			errs = append(errs, errors.New("STATIC_DIR is required for local static source"))
		}
	case SourceHTTP:
		if c.StaticBaseURL == "" {
			errs = append(errs, errors.New("STATIC_BASE_URL is required for http static source"))
		}
	case SourceSpaces:
		if c.SpacesEndpoint == "" || c.SpacesBucket == "" || c.SpacesAccessKey == "" || c.SpacesSecretKey == "" {
			errs = append(errs, errors.New("SPACES_ENDPOINT, SPACES_BUCKET, SPACES_ACCESS_KEY and SPACES_SECRET_KEY are required for spaces static source"))
		}
	default:
		errs = append(errs, fmt.Errorf("STATIC_SOURCE must be one of: local, spaces, http; got %q", c.StaticSource))
	}

	if c.Env == EnvProduction && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	if c.MonthlyCacheSize < 1 || c.RamadanCacheSize < 1 {
		errs = append(errs, errors.New("MONTHLY_CACHE_SIZE and RAMADAN_CACHE_SIZE must be at least 1"))
	}

	for name, spec := range map[string]string{"SWEEP_SCHEDULE": c.SweepSchedule, "DST_RELOAD_SCHEDULE": c.DSTReloadSchedule} {
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, spec, err))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Location returns the configured mosque time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
