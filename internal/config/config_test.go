package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	path := writeFile(t, t.TempDir(), "config.yaml", `
openai:
  api_key: file-key
  model: gpt-3.5-turbo-0301
  max_tokens: 64
  timeout: 5s
log:
  level: debug
metrics:
  enabled: true
  interval: 30s
history:
  transcript_dir: /tmp/transcripts
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file-key", cfg.OpenAI.APIKey)
	require.Equal(t, "gpt-3.5-turbo-0301", cfg.OpenAI.Model)
	require.Equal(t, 64, cfg.OpenAI.MaxTokens)
	require.Equal(t, 5*time.Second, *cfg.OpenAI.Timeout)
	require.Equal(t, DefaultTemperature, *cfg.OpenAI.Temperature)
	require.Equal(t, DefaultBaseURL, cfg.OpenAI.BaseURL)
	require.Equal(t, DefaultCompletionModel, cfg.OpenAI.CompletionModel)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, 30*time.Second, cfg.Metrics.Interval)
	require.Equal(t, DefaultMetricsFile, cfg.Metrics.File)
	require.Equal(t, "/tmp/transcripts", cfg.History.TranscriptDir)
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	path := writeFile(t, t.TempDir(), "config.yaml", `
openai:
  api_key: k
  temperature: 0
  timeout: 0s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.OpenAI.Temperature)
	require.Zero(t, *cfg.OpenAI.Temperature)
	require.NotNil(t, cfg.OpenAI.Timeout)
	require.Zero(t, *cfg.OpenAI.Timeout)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvBaseURL, "http://localhost:8080/v1")

	path := writeFile(t, t.TempDir(), "config.yaml", "openai:\n  api_key: file-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.OpenAI.APIKey)
	require.Equal(t, "http://localhost:8080/v1", cfg.OpenAI.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	t.Run("key from environment", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "env-key")
		cfg, err := Load(missing)
		require.NoError(t, err)
		require.Equal(t, "env-key", cfg.OpenAI.APIKey)
		require.Equal(t, DefaultModel, cfg.OpenAI.Model)
	})

	t.Run("no key anywhere", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		_, err := Load(missing)
		require.Error(t, err)
	})
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "openai: [unterminated"},
		{name: "bad log level", content: "openai:\n  api_key: k\nlog:\n  level: loud\n"},
		{name: "negative max tokens", content: "openai:\n  api_key: k\n  max_tokens: -1\n"},
		{name: "negative timeout", content: "openai:\n  api_key: k\n  timeout: -1s\n"},
		{name: "temperature out of range", content: "openai:\n  api_key: k\n  temperature: 2.5\n"},
		{name: "negative metrics interval", content: "openai:\n  api_key: k\nmetrics:\n  interval: -5s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvAPIKey, "")
	require.NoError(t, os.Unsetenv(EnvAPIKey))
	t.Setenv(EnvBaseURL, "")

	writeFile(t, dir, ".env", EnvAPIKey+"=dotenv-key\n")
	writeFile(t, dir, DefaultConfigPath, "openai:\n  model: gpt-3.5-turbo-0301\n")

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "dotenv-key", cfg.OpenAI.APIKey)
	require.Equal(t, "gpt-3.5-turbo-0301", cfg.OpenAI.Model)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "GPTKIT_TEST_DOTENV=from-dotenv\n")

	t.Setenv("GPTKIT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("GPTKIT_TEST_DOTENV"))

	require.NoError(t, LoadEnv(path))
	require.Equal(t, "from-dotenv", os.Getenv("GPTKIT_TEST_DOTENV"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}
