package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "CATALOG_PATH", "PORT", "OPENAI_BASE_URL", "IDENTITY_STRATEGY",
		"INBOX_DIR", "LOG_LEVEL", "ENVIRONMENT", "USE_MOCK_TRANSCRIBE", "USE_MOCK_LLM",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Identity.Strategy != "filename" {
		t.Fatalf("strategy = %q, want filename", cfg.Identity.Strategy)
	}
	if cfg.OpenAI.TranscriptionModel != "whisper-1" {
		t.Fatalf("transcription model = %q", cfg.OpenAI.TranscriptionModel)
	}
	if cfg.OpenAI.MaxTokens != 75 {
		t.Fatalf("max tokens = %d, want 75", cfg.OpenAI.MaxTokens)
	}
	if cfg.CatalogPath != filepath.Join(cfg.DataDir, "data.json") {
		t.Fatalf("catalog path = %q", cfg.CatalogPath)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
data_dir: /srv/voice
identity:
  strategy: modtime
openai:
  base_url: http://upstream.local/v1/
  max_tokens: 40
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("USE_MOCK_LLM", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/srv/voice" {
		t.Fatalf("data dir = %q", cfg.DataDir)
	}
	if cfg.Identity.Strategy != "modtime" {
		t.Fatalf("strategy = %q", cfg.Identity.Strategy)
	}
	if cfg.OpenAI.BaseURL != "http://upstream.local/v1" {
		t.Fatalf("base url = %q, want trailing slash trimmed", cfg.OpenAI.BaseURL)
	}
	if cfg.OpenAI.MaxTokens != 40 {
		t.Fatalf("max tokens = %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if !cfg.OpenAI.MockLLM {
		t.Fatal("USE_MOCK_LLM not applied")
	}
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir(), Identity: IdentityConfig{Strategy: "exif"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
