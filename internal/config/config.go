package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int    `yaml:"port"`
	NatsURL     string `yaml:"nats_url"`
	NatsToken   string `yaml:"nats_token"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	APIToken    string `yaml:"api_token"`

	// LLMProvider selects the completion backend: "openai" or "anthropic".
	LLMProvider       string        `yaml:"llm_provider"`
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	AnthropicAPIKey   string        `yaml:"anthropic_api_key"`
	Model             string        `yaml:"model"`
	ExtractorModel    string        `yaml:"extractor_model"`
	InferenceURL      string        `yaml:"inference_url"`
	CompletionTimeout time.Duration `yaml:"completion_timeout"`

	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	SweepSchedule      string        `yaml:"sweep_schedule"`
	Language           string        `yaml:"language"`
	ExportDir          string        `yaml:"export_dir"`
}

func defaults() Config {
	return Config{
		Port:               8760,
		NatsURL:            "",
		LogLevel:           "info",
		LLMProvider:        "openai",
		Model:              "gpt-4",
		ExtractorModel:     "gpt-4o-mini",
		CompletionTimeout:  30 * time.Second,
		SessionIdleTimeout: 60 * time.Minute,
		SweepSchedule:      "@every 1m",
		Language:           "es",
		ExportDir:          "exports",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// PROCSTOP_CONFIG when set, then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("PROCSTOP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envInt("PROCSTOP_PORT", cfg.Port)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.APIToken = envStr("PROCSTOP_API_TOKEN", cfg.APIToken)
	cfg.LLMProvider = envStr("LLM_PROVIDER", cfg.LLMProvider)
	cfg.OpenAIAPIKey = envStr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.Model = envStr("PROCSTOP_MODEL", cfg.Model)
	cfg.ExtractorModel = envStr("EXTRACTOR_MODEL", cfg.ExtractorModel)
	cfg.InferenceURL = envStr("INFERENCE_URL", cfg.InferenceURL)
	cfg.CompletionTimeout = envDuration("COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	cfg.SessionIdleTimeout = envDuration("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	cfg.SweepSchedule = envStr("SWEEP_SCHEDULE", cfg.SweepSchedule)
	cfg.Language = envStr("PROCSTOP_LANGUAGE", cfg.Language)
	cfg.ExportDir = envStr("EXPORT_DIR", cfg.ExportDir)
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
