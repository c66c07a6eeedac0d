// Package config provides configuration loading and validation for gptkit.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Log     LogConfig     `yaml:"log"`
	Trace   TraceConfig   `yaml:"trace"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
}

// OpenAIConfig contains OpenAI API settings.
type OpenAIConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	CompletionModel string        `yaml:"completion_model"`
	MaxTokens       int           `yaml:"max_tokens"`

	// nil means unset. An explicit temperature 0 is kept, and timeout 0s
	// disables the per-request timeout.
	Temperature *float64       `yaml:"temperature"`
	Timeout     *time.Duration `yaml:"timeout"`
}

// LogConfig contains structured logging settings.
// An empty File logs to stderr.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// TraceConfig contains OpenTelemetry tracing settings.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// MetricsConfig contains OpenTelemetry metrics settings.
// Interval is how often request metrics are exported to File.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	File     string        `yaml:"file"`
	Interval time.Duration `yaml:"interval"`
}

// HistoryConfig contains chat transcript settings.
// An empty TranscriptDir disables saving transcripts.
type HistoryConfig struct {
	TranscriptDir string `yaml:"transcript_dir"`
}

// DefaultConfigPath is the default path to look for the configuration file.
const DefaultConfigPath = "config.yaml"

// Environment variables that override the configuration file.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
)

// Default values for optional configuration fields.
const (
	DefaultModel           = "gpt-3.5-turbo"
	DefaultCompletionModel = "text-davinci-003"
	DefaultMaxTokens       = 1000
	DefaultTemperature     = 0.7
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultTimeout         = 60 * time.Second
	DefaultLogLevel        = "info"
	DefaultTraceFile       = "logs/gptkit_traces.log"
	DefaultMetricsFile     = "logs/gptkit_metrics.log"
	DefaultMetricsInterval = 10 * time.Second
)

// Load reads and parses the configuration from the specified file path.
// A missing file is not an error as long as the API key comes from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv(os.Getenv)

	// Apply defaults for optional fields
	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads .env (if present) and then the configuration from the default path.
func LoadDefault() (*Config, error) {
	if err := LoadEnv(".env"); err != nil {
		return nil, err
	}
	return Load(DefaultConfigPath)
}

// LoadEnv loads variables from a dotenv file into the process environment.
// Variables already set are not overwritten, and a missing file is ignored.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIKey); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.OpenAI.BaseURL = v
	}
}

// applyDefaults sets default values for optional configuration fields.
func (c *Config) applyDefaults() {
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultModel
	}
	if c.OpenAI.CompletionModel == "" {
		c.OpenAI.CompletionModel = DefaultCompletionModel
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = DefaultMaxTokens
	}
	if c.OpenAI.Temperature == nil {
		temperature := DefaultTemperature
		c.OpenAI.Temperature = &temperature
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = DefaultBaseURL
	}
	if c.OpenAI.Timeout == nil {
		timeout := DefaultTimeout
		c.OpenAI.Timeout = &timeout
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Trace.File == "" {
		c.Trace.File = DefaultTraceFile
	}
	if c.Metrics.File == "" {
		c.Metrics.File = DefaultMetricsFile
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = DefaultMetricsInterval
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required in configuration or %s", EnvAPIKey)
	}
	if c.OpenAI.MaxTokens < 0 {
		return errors.New("openai.max_tokens must not be negative")
	}
	if c.OpenAI.Timeout != nil && *c.OpenAI.Timeout < 0 {
		return errors.New("openai.timeout must not be negative")
	}
	if t := c.OpenAI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("openai.temperature must be between 0 and 2; got %v", *t)
	}
	if c.Metrics.Interval < 0 {
		return errors.New("metrics.interval must not be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}
