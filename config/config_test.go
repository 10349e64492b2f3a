package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYDNEYKIDS_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %s, want 30s", cfg.ReadTimeout)
	}
	if cfg.HistoryBudget != 2048 {
		t.Errorf("HistoryBudget = %d, want 2048", cfg.HistoryBudget)
	}
	if cfg.ContextLimit != 5 {
		t.Errorf("ContextLimit = %d, want 5", cfg.ContextLimit)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want memory", cfg.Store)
	}
	if cfg.ConversationID != "assistant" {
		t.Errorf("ConversationID = %q", cfg.ConversationID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYDNEYKIDS_API_KEY", "sk-test")
	t.Setenv("SYDNEYKIDS_MODEL", "gpt-4o")
	t.Setenv("SYDNEYKIDS_READ_TIMEOUT", "90s")
	t.Setenv("SYDNEYKIDS_STORE", "redis")
	t.Setenv("SYDNEYKIDS_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("SYDNEYKIDS_REDIS_DB", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.ReadTimeout != 90*time.Second {
		t.Errorf("ReadTimeout = %s", cfg.ReadTimeout)
	}
	if cfg.Store != StoreRedis {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.RedisAddr != "redis.internal:6380" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("SYDNEYKIDS_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() accepted a config with no API key")
	}
	if !strings.Contains(err.Error(), "SYDNEYKIDS_API_KEY") {
		t.Errorf("error does not name the missing field: %v", err)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SYDNEYKIDS_API_KEY", "sk-test")
	t.Setenv("SYDNEYKIDS_STORE", "cassandra")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted an unknown store backend")
	}
}

func TestValidateStoreSpecificFields(t *testing.T) {
	cfg := &Config{
		APIKey:         "sk-test",
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		ConversationID: "assistant",
		ContextLimit:   5,
		Store:          StoreMongo,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("mongo store with empty URI accepted")
	}

	cfg.MongoURI = "mongodb://localhost:27017"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
