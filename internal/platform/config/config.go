package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	StoreBackend string `env:"STORE_BACKEND" default:"file"`
	DataDir      string `env:"DATA_DIR" default:"./data"`
	RedisURL     string `env:"REDIS_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// EncryptionKey is a 64 hex character AES-256 key. Empty stores payloads in plaintext.
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	InferenceURL     string        `env:"INFERENCE_URL"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" default:"3s"`

	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	LinguisticAnalysis bool `env:"LINGUISTIC_ANALYSIS" default:"true"`

	AlertThreshold float64       `env:"ALERT_THRESHOLD" default:"-0.5"`
	AlertLimit     int           `env:"ALERT_LIMIT" default:"5"`
	StateIdleTTL   time.Duration `env:"STATE_IDLE_TTL" default:"30m"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendFile:
		if cfg.DataDir == "" {
			return errors.New("DATA_DIR is required for the file backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
		if cfg.AppEnv == "production" {
			if err := validateSSLMode(cfg.DatabaseURL); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of file, redis, postgres, got %q", cfg.StoreBackend)
	}

	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(key))
		}
	}

	if cfg.InferenceURL != "" {
		if _, err := url.ParseRequestURI(cfg.InferenceURL); err != nil {
			return fmt.Errorf("INFERENCE_URL is not a valid URL: %w", err)
		}
	}
	if cfg.InferenceTimeout <= 0 {
		return errors.New("INFERENCE_TIMEOUT must be positive")
	}
	if cfg.AlertThreshold < -1 || cfg.AlertThreshold > 1 {
		return fmt.Errorf("ALERT_THRESHOLD must be within [-1, 1], got %v", cfg.AlertThreshold)
	}
	if cfg.AlertLimit < 1 {
		return fmt.Errorf("ALERT_LIMIT must be at least 1, got %d", cfg.AlertLimit)
	}
	if cfg.StateIdleTTL <= 0 {
		return errors.New("STATE_IDLE_TTL must be positive")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_PER_SECOND must be positive and RATE_LIMIT_BURST at least 1")
	}

	return nil
}

func validateSSLMode(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "disable" || mode == "allow" {
		return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
	}
	return nil
}

// EmbeddingsEnabled reports whether an embedding provider is configured.
func (c *Config) EmbeddingsEnabled() bool {
	return c.OpenAIAPIKey != ""
}
