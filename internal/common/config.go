package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/tavolo/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	PlacesAPI   PlacesAPIConfig `toml:"places_api"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	GCSchedule     string `toml:"gc_schedule"`      // Cron schedule for value-log GC
}

// PlacesAPIConfig contains Google Places API configuration
type PlacesAPIConfig struct {
	APIKey              string        `toml:"api_key"`                // Google Places API key
	RateLimit           int           `toml:"rate_limit" validate:"gte=1"` // Max requests per second
	RequestTimeout      time.Duration `toml:"request_timeout"`        // HTTP request timeout
	MaxResultsPerSearch int           `toml:"max_results_per_search" validate:"gte=1,lte=20"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for AI operations
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude"
	Enabled         bool        `toml:"enabled"`          // Model-assisted parsing/ranking on or off
}

// PipelineConfig tunes the recommendation pipeline.
type PipelineConfig struct {
	CandidateCap    int           `toml:"candidate_cap" validate:"gte=1,lte=20"`  // Max candidates retained after retrieval
	EnrichWorkers   int           `toml:"enrich_workers" validate:"gte=1,lte=16"` // Concurrent detail fetches
	OutputCap       int           `toml:"output_cap" validate:"gte=1"`            // Max recommendations returned
	RerankCap       int           `toml:"rerank_cap" validate:"gte=1"`            // Max candidates sent to the model ranker
	ModelWeight     float64       `toml:"model_weight" validate:"gte=0,lte=1"`    // Blend of model confidence vs deterministic score
	RequestDeadline time.Duration `toml:"request_deadline"`                       // End-to-end ceiling per invocation
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in tavolo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data",
				GCSchedule: "@hourly",
			},
		},
		PlacesAPI: PlacesAPIConfig{
			APIKey:              "", // User must provide API key in config file
			RateLimit:           10,
			RequestTimeout:      30 * time.Second,
			MaxResultsPerSearch: 20, // Google Places API limit per request
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Enabled:         true,
		},
		Pipeline: PipelineConfig{
			CandidateCap:    12,
			EnrichWorkers:   6,
			OutputCap:       6,
			RerankCap:       8,
			ModelWeight:     1.0, // Model judgment is authoritative when present
			RequestDeadline: 180 * time.Second,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files
// override earlier ones, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies TAVOLO_* environment variables on top of
// file configuration.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TAVOLO_ENVIRONMENT"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("TAVOLO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if key := os.Getenv("TAVOLO_PLACES_API_KEY"); key != "" {
		config.PlacesAPI.APIKey = key
	}
	if key := os.Getenv("TAVOLO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("TAVOLO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("TAVOLO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if enabled := os.Getenv("TAVOLO_LLM_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.LLM.Enabled = b
		}
	}
	if path := os.Getenv("TAVOLO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variable -> KV store ->
// config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnv := map[string]string{
		"google_places_api_key": "TAVOLO_PLACES_API_KEY",
		"gemini_api_key":        "TAVOLO_GEMINI_API_KEY",
		"anthropic_api_key":     "TAVOLO_CLAUDE_API_KEY",
	}

	// The standard Anthropic env var also works for Claude
	if name == "anthropic_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	if envName, ok := keyToEnv[name]; ok {
		if envValue := os.Getenv(envName); envValue != "" {
			return envValue, nil
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
