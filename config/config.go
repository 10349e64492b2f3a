// Package config loads and validates application settings from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Store names the supported conversation store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Config holds everything the chat application reads from its
// environment.
type Config struct {
	// Upstream API
	APIKey  string `env:"SYDNEYKIDS_API_KEY"`
	BaseURL string `env:"SYDNEYKIDS_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"SYDNEYKIDS_MODEL" envDefault:"gpt-4o-mini"`
	User    string `env:"SYDNEYKIDS_USER"`

	// Reply streaming
	ReadTimeout   time.Duration `env:"SYDNEYKIDS_READ_TIMEOUT" envDefault:"30s"`
	HistoryBudget int           `env:"SYDNEYKIDS_HISTORY_BUDGET" envDefault:"2048"`
	ContextLimit  int           `env:"SYDNEYKIDS_CONTEXT_LIMIT" envDefault:"5"`

	// Prompt context
	Unfurl bool `env:"SYDNEYKIDS_UNFURL" envDefault:"false"`

	// User profile shown to the assistant
	DisplayName string `env:"SYDNEYKIDS_NAME"`
	Suburb      string `env:"SYDNEYKIDS_SUBURB"`

	// Observability
	Telemetry bool `env:"SYDNEYKIDS_TELEMETRY" envDefault:"false"`

	// Conversation persistence
	ConversationID string `env:"SYDNEYKIDS_CONVERSATION_ID" envDefault:"assistant"`
	Store          string `env:"SYDNEYKIDS_STORE" envDefault:"memory"`

	RedisAddr     string `env:"SYDNEYKIDS_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"SYDNEYKIDS_REDIS_PASSWORD"`
	RedisDB       int    `env:"SYDNEYKIDS_REDIS_DB" envDefault:"0"`

	MongoURI string `env:"SYDNEYKIDS_MONGO_URI" envDefault:"mongodb://localhost:27017"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded settings for consistency.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty("SYDNEYKIDS_API_KEY", c.APIKey)
	v.RequireNonEmpty("SYDNEYKIDS_BASE_URL", c.BaseURL)
	v.RequireNonEmpty("SYDNEYKIDS_MODEL", c.Model)
	v.RequireNonEmpty("SYDNEYKIDS_CONVERSATION_ID", c.ConversationID)
	v.RequirePositive("SYDNEYKIDS_CONTEXT_LIMIT", c.ContextLimit)
	v.RequireNonNegative("SYDNEYKIDS_HISTORY_BUDGET", c.HistoryBudget)
	v.ValidateOneOf("SYDNEYKIDS_STORE", c.Store, StoreMemory, StoreRedis, StoreMongo)

	switch c.Store {
	case StoreRedis:
		v.RequireNonEmpty("SYDNEYKIDS_REDIS_ADDR", c.RedisAddr)
		v.ValidateDBNumber("SYDNEYKIDS_REDIS_DB", c.RedisDB)
	case StoreMongo:
		v.RequireNonEmpty("SYDNEYKIDS_MONGO_URI", c.MongoURI)
	}

	return v.Error()
}
