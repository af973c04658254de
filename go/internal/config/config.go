// Package config loads process settings from .env, an optional YAML file
// named by MATCHBOARD_CONFIG, and environment variables, in that order of
// increasing precedence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mcdev12/matchboard/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// FileEnv names the YAML config file.
const FileEnv = "MATCHBOARD_CONFIG"

type Config struct {
	Port          string `yaml:"port" validate:"required,numeric"`
	LogLevel      string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	PublicBaseURL string `yaml:"public_base_url" validate:"required,url"`

	// Store selects the match store. The memory store publishes changes
	// in-process and needs neither Postgres nor NATS.
	Store string `yaml:"store" validate:"oneof=memory postgres"`

	// NATSURL enables the JetStream change relay and the logo object
	// store. Empty keeps both in-process.
	NATSURL    string `yaml:"nats_url" validate:"omitempty,url"`
	LogoBucket string `yaml:"logo_bucket" validate:"required"`

	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	Feed    FeedConfig    `yaml:"feed"`
	Overlay OverlayConfig `yaml:"overlay"`

	Database dbconfig.Config `yaml:"-"`
}

type FeedConfig struct {
	Stream           string        `yaml:"stream" validate:"required"`
	SubjectPrefix    string        `yaml:"subject_prefix" validate:"required"`
	Consumer         string        `yaml:"consumer" validate:"required"`
	NotifyChannel    string        `yaml:"notify_channel" validate:"required"`
	FallbackInterval time.Duration `yaml:"fallback_interval" validate:"gt=0"`
	Retention        time.Duration `yaml:"retention" validate:"gt=0"`
	BufferSize       int           `yaml:"buffer_size" validate:"gt=0"`
}

type OverlayConfig struct {
	ClockInterval time.Duration `yaml:"clock_interval" validate:"gt=0"`
	CardInterval  time.Duration `yaml:"card_interval" validate:"gt=0"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "info",
		PublicBaseURL: "http://localhost:8080",
		Store:         StoreMemory,
		LogoBucket:    "logos",
		Feed: FeedConfig{
			Stream:           "MATCH_CHANGES",
			SubjectPrefix:    "match.changes",
			Consumer:         "matchboard-gateway",
			NotifyChannel:    "match_changes",
			FallbackInterval: 10 * time.Second,
			Retention:        24 * time.Hour,
			BufferSize:       256,
		},
		Overlay: OverlayConfig{
			ClockInterval: 200 * time.Millisecond,
			CardInterval:  time.Second,
		},
	}
}

// Load builds the configuration and validates it.
func Load() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	cfg.Database = dbconfig.NewConfigFromEnv()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "failed to parse config")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.Store = strings.ToLower(getEnv("STORE", cfg.Store))
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.LogoBucket = getEnv("LOGO_BUCKET", cfg.LogoBucket)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)

	cfg.Feed.Stream = getEnv("FEED_STREAM", cfg.Feed.Stream)
	cfg.Feed.Consumer = getEnv("FEED_CONSUMER", cfg.Feed.Consumer)
	cfg.Feed.FallbackInterval = getEnvAsDuration("FEED_FALLBACK_INTERVAL", cfg.Feed.FallbackInterval)
	cfg.Feed.BufferSize = getEnvAsInt("FEED_BUFFER_SIZE", cfg.Feed.BufferSize)

	cfg.Overlay.ClockInterval = getEnvAsDuration("OVERLAY_CLOCK_INTERVAL", cfg.Overlay.ClockInterval)
	cfg.Overlay.CardInterval = getEnvAsDuration("OVERLAY_CARD_INTERVAL", cfg.Overlay.CardInterval)
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
