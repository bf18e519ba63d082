package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cloo-solutions/veccache/internal/domain"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Postgres vector source (optional; snapshot sources work without it)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// S3-compatible snapshot storage (optional)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"veccache-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Query embedding generation (optional; precomputed queries work without it)
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Cache budget overrides; zero values fall back to domain defaults
	CacheMaxMemoryKB   int64 `envconfig:"CACHE_MAX_MEMORY_KB"`
	CacheMaxVectors    int   `envconfig:"CACHE_MAX_VECTORS"`
	CacheEvictionBatch int   `envconfig:"CACHE_EVICTION_BATCH"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("VECCACHE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// CacheConfig builds the per-scope cache budgets from the environment
// overrides, falling back to domain defaults.
func (c *Config) CacheConfig() domain.CacheConfig {
	return domain.CacheConfig{
		MaxMemoryKB:       c.CacheMaxMemoryKB,
		MaxVectorCount:    c.CacheMaxVectors,
		EvictionBatchSize: c.CacheEvictionBatch,
	}.Resolve()
}
