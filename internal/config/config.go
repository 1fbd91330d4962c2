package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir     string         `yaml:"data_dir"`
	CatalogPath string         `yaml:"catalog_path"`
	ListenAddr  string         `yaml:"listen_addr"`
	Identity    IdentityConfig `yaml:"identity"`
	OpenAI      OpenAIConfig   `yaml:"openai"`
	Watch       WatchConfig    `yaml:"watch"`
	Logging     LoggingConfig  `yaml:"logging"`
}

type IdentityConfig struct {
	// Strategy is "filename" or "modtime".
	Strategy string `yaml:"strategy"`
}

type OpenAIConfig struct {
	BaseURL            string `yaml:"base_url"`
	TranscriptionModel string `yaml:"transcription_model"`
	CompletionModel    string `yaml:"completion_model"`
	MaxTokens          int    `yaml:"max_tokens"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MaxRetries         int    `yaml:"max_retries"`
	MockTranscribe     bool   `yaml:"mock_transcribe"`
	MockLLM            bool   `yaml:"mock_llm"`
}

type WatchConfig struct {
	InboxDir     string `yaml:"inbox_dir"`
	SettleMillis int    `yaml:"settle_ms"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
}

// Load reads path (a missing file yields defaults), applies env overrides
// and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = envOr("DATA_DIR", c.DataDir)
	c.CatalogPath = envOr("CATALOG_PATH", c.CatalogPath)
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + port
	}
	c.OpenAI.BaseURL = envOr("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.Identity.Strategy = envOr("IDENTITY_STRATEGY", c.Identity.Strategy)
	c.Watch.InboxDir = envOr("INBOX_DIR", c.Watch.InboxDir)
	c.Logging.Level = envOr("LOG_LEVEL", c.Logging.Level)
	c.Logging.Environment = envOr("ENVIRONMENT", c.Logging.Environment)
	if v, ok := envBool("USE_MOCK_TRANSCRIBE"); ok {
		c.OpenAI.MockTranscribe = v
	}
	if v, ok := envBool("USE_MOCK_LLM"); ok {
		c.OpenAI.MockLLM = v
	}
}

// Validate fills defaults and rejects unusable values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".voice-ingest")
	}
	if c.CatalogPath == "" {
		c.CatalogPath = filepath.Join(c.DataDir, "data.json")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}

	switch c.Identity.Strategy {
	case "":
		c.Identity.Strategy = "filename"
	case "filename", "modtime":
	default:
		return fmt.Errorf("identity.strategy must be filename or modtime, got %q", c.Identity.Strategy)
	}

	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	c.OpenAI.BaseURL = strings.TrimRight(c.OpenAI.BaseURL, "/")
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.CompletionModel == "" {
		c.OpenAI.CompletionModel = "gpt-3.5-turbo-instruct"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 75
	}
	if c.OpenAI.MaxTokens < 0 {
		return fmt.Errorf("openai.max_tokens must be positive")
	}
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = 300
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai.max_retries must not be negative")
	}

	if c.Watch.SettleMillis == 0 {
		c.Watch.SettleMillis = 2000
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string) (bool, bool) {
	v := os.Getenv(k)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
