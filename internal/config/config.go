// Package config loads the service configuration from YAML with environment
// overrides for deployment-specific and secret values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// Paint dataset artifacts produced by the mergedb pipeline.
	Tier1Path string `yaml:"tier1Path"`
	Tier2Path string `yaml:"tier2Path"`

	// LLM provider. Provider is "gemini" or "openai".
	AIProvider   string `yaml:"aiProvider"`
	GeminiAPIKey string `yaml:"geminiAPIKey"`
	GeminiModel  string `yaml:"geminiModel"`
	OpenAIAPIKey string `yaml:"openaiAPIKey"`
	OpenAIBase   string `yaml:"openaiBaseURL"`
	OpenAIModel  string `yaml:"openaiModel"`

	// Google Custom Search. Empty key disables the research tier.
	SearchAPIKey   string `yaml:"searchAPIKey"`
	SearchEngineID string `yaml:"searchEngineID"`

	// Redis backs the research caches and distributed rate limiting when
	// set; empty falls back to in-process equivalents.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	// Postgres DSN for conversation persistence; empty uses memory.
	DatabaseDSN string `yaml:"databaseDSN"`

	// MinIO photo archive; empty endpoint disables archiving.
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	// Session token signing.
	SessionSecret string `yaml:"sessionSecret"`
	SessionIssuer string `yaml:"sessionIssuer"`

	AllowedOrigins    []string `yaml:"allowedOrigins"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`

	// Per-minute quotas keyed by client IP.
	LookupRateLimitPerMinute   int `yaml:"lookupRateLimitPerMinute"`
	ResearchRateLimitPerMinute int `yaml:"researchRateLimitPerMinute"`
	SearchRateLimitPerMinute   int `yaml:"searchRateLimitPerMinute"`

	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("PAINTCODE_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("PAINTCODE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("PAINTCODE_TIER1_PATH"); v != "" {
		cfg.Tier1Path = v
	}
	if v := os.Getenv("PAINTCODE_TIER2_PATH"); v != "" {
		cfg.Tier2Path = v
	}
	if v := os.Getenv("PAINTCODE_AI_PROVIDER"); v != "" {
		cfg.AIProvider = strings.TrimSpace(v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.SearchAPIKey = v
	}
	if v := os.Getenv("SEARCH_ENGINE_ID"); v != "" {
		cfg.SearchEngineID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("PAINTCODE_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("PAINTCODE_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("PAINTCODE_LOOKUP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LookupRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PAINTCODE_RESEARCH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ResearchRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PAINTCODE_SEARCH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SearchRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PAINTCODE_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LookupRateLimitPerMinute == 0 {
		cfg.LookupRateLimitPerMinute = 10
	}
	if cfg.ResearchRateLimitPerMinute == 0 {
		cfg.ResearchRateLimitPerMinute = 5
	}
	if cfg.SearchRateLimitPerMinute == 0 {
		cfg.SearchRateLimitPerMinute = 3
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.SessionIssuer == "" {
		cfg.SessionIssuer = "paintcode"
	}
	if cfg.MinioBucket == "" {
		cfg.MinioBucket = "paintcode-photos"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.Tier1Path) == "" {
		return errors.New("config: tier1Path is required (set in config.yaml)")
	}
	switch cfg.AIProvider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config: unknown aiProvider %q (use gemini or openai)", cfg.AIProvider)
	}
	if len(cfg.SessionSecret) < 32 {
		return errors.New("config: sessionSecret must be at least 32 bytes (set SESSION_SECRET)")
	}
	if cfg.LookupRateLimitPerMinute < 0 || cfg.ResearchRateLimitPerMinute < 0 || cfg.SearchRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
