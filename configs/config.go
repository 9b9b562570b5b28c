package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	MaxUploadMB int

	AzureOpenAIEndpoint       string
	AzureOpenAIAPIKey         string
	AzureOpenAIAPIVersion     string
	AzureOpenAIDeploymentName string

	TrendProviderURL    string
	MentionProviderURL  string
	MentionProviderKey  string
	SignalFetchTimeout  time.Duration
	SignalMaxConcurrent int
	SignalRatePerSec    float64
	TrendWindowMonths   int
	MentionLimit        int

	ForecastHorizon int
	TopProducts     int

	SchemaConfigPath    string
	AssistantPromptPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 32),

		AzureOpenAIEndpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIKey:         getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2023-12-01-preview"),
		AzureOpenAIDeploymentName: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o-mini"),

		TrendProviderURL:    strings.TrimRight(getEnv("TREND_PROVIDER_URL", ""), "/"),
		MentionProviderURL:  strings.TrimRight(getEnv("MENTION_PROVIDER_URL", ""), "/"),
		MentionProviderKey:  getEnv("MENTION_PROVIDER_KEY", ""),
		SignalFetchTimeout:  getEnvDuration("SIGNAL_FETCH_TIMEOUT", 8*time.Second),
		SignalMaxConcurrent: getEnvInt("SIGNAL_MAX_CONCURRENCY", 3),
		SignalRatePerSec:    getEnvFloat("SIGNAL_RATE_PER_SEC", 5),
		TrendWindowMonths:   getEnvInt("TREND_WINDOW_MONTHS", 3),
		MentionLimit:        getEnvInt("MENTION_LIMIT", 5),

		ForecastHorizon: getEnvInt("FORECAST_HORIZON", 6),
		TopProducts:     getEnvInt("TOP_PRODUCTS", 3),

		SchemaConfigPath:    getEnv("SCHEMA_CONFIG_PATH", "configs/schema.yaml"),
		AssistantPromptPath: getEnv("ASSISTANT_PROMPT_PATH", "configs/assistant_prompt.yaml"),
	}
}

// Validate checks numeric ranges.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.SignalFetchTimeout <= 0 {
		return fmt.Errorf("SIGNAL_FETCH_TIMEOUT must be positive")
	}
	if c.SignalMaxConcurrent <= 0 {
		return fmt.Errorf("SIGNAL_MAX_CONCURRENCY must be positive")
	}
	if c.SignalRatePerSec <= 0 {
		return fmt.Errorf("SIGNAL_RATE_PER_SEC must be positive")
	}
	if c.TrendWindowMonths <= 0 {
		return fmt.Errorf("TREND_WINDOW_MONTHS must be positive")
	}
	if c.MentionLimit <= 0 {
		return fmt.Errorf("MENTION_LIMIT must be positive")
	}
	if c.ForecastHorizon <= 0 {
		return fmt.Errorf("FORECAST_HORIZON must be positive")
	}
	if c.TopProducts <= 0 {
		return fmt.Errorf("TOP_PRODUCTS must be positive")
	}
	return nil
}

// IsProduction reports whether gin should run in release mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to the default when the value is unset or not an integer.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("8s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
