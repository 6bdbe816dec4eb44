package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
port: "8080"
logLevel: debug
tier1Path: data/tier1.json
tier2Path: data/tier2.json
aiProvider: gemini
sessionSecret: "0123456789abcdef0123456789abcdef"
allowedOrigins:
  - https://findmypaintcode.example
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Tier1Path != "data/tier1.json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	// Defaults.
	if cfg.LookupRateLimitPerMinute != 10 || cfg.ResearchRateLimitPerMinute != 5 || cfg.SearchRateLimitPerMinute != 3 {
		t.Fatalf("rate limit defaults = %d/%d/%d", cfg.LookupRateLimitPerMinute, cfg.ResearchRateLimitPerMinute, cfg.SearchRateLimitPerMinute)
	}
	if cfg.SessionIssuer != "paintcode" || cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAINTCODE_PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("PAINTCODE_LOOKUP_RATE_LIMIT_PER_MINUTE", "25")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.GeminiAPIKey != "env-key" || cfg.LookupRateLimitPerMinute != 25 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing port", "tier1Path: x\nsessionSecret: \"0123456789abcdef0123456789abcdef\"\n"},
		{"missing tier1", "port: \"8080\"\nsessionSecret: \"0123456789abcdef0123456789abcdef\"\n"},
		{"short secret", "port: \"8080\"\ntier1Path: x\nsessionSecret: short\n"},
		{"bad provider", "port: \"8080\"\ntier1Path: x\nsessionSecret: \"0123456789abcdef0123456789abcdef\"\naiProvider: cohere\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
