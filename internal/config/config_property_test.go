package config

import (
	"reflect"
	"testing"
	"testing/quick"
	"time"
)

// openAIFields is the subset of OpenAIConfig that quick can generate directly.
// SetTemp and SetTimeout decide whether the optional fields are present,
// which includes an explicit zero.
type openAIFields struct {
	Model      string
	BaseURL    string
	MaxTokens  uint16
	Temp       float64
	SetTemp    bool
	Timeout    uint32
	SetTimeout bool
}

func (f openAIFields) config() *Config {
	c := &Config{OpenAI: OpenAIConfig{
		Model:     f.Model,
		BaseURL:   f.BaseURL,
		MaxTokens: int(f.MaxTokens),
	}}
	if f.SetTemp {
		temp := f.Temp
		c.OpenAI.Temperature = &temp
	}
	if f.SetTimeout {
		timeout := time.Duration(f.Timeout)
		c.OpenAI.Timeout = &timeout
	}
	return c
}

// TestApplyDefaultsIdempotence verifies that a second applyDefaults is a no-op.
func TestApplyDefaultsIdempotence(t *testing.T) {
	property := func(f openAIFields) bool {
		once, twice := f.config(), f.config()
		once.applyDefaults()
		twice.applyDefaults()
		twice.applyDefaults()
		return reflect.DeepEqual(once, twice)
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

// TestApplyDefaultsFillsAndPreserves verifies that every unset field receives a
// default and every set field, including an explicit zero, is left alone.
func TestApplyDefaultsFillsAndPreserves(t *testing.T) {
	property := func(f openAIFields) bool {
		c := f.config()
		c.applyDefaults()

		keep := func(set bool, got, in any) bool { return !set || got == in }

		wantTemp, wantTimeout := DefaultTemperature, DefaultTimeout
		if f.SetTemp {
			wantTemp = f.Temp
		}
		if f.SetTimeout {
			wantTimeout = time.Duration(f.Timeout)
		}

		return c.OpenAI.Model != "" && c.OpenAI.CompletionModel != "" &&
			c.OpenAI.BaseURL != "" && c.OpenAI.MaxTokens != 0 &&
			c.OpenAI.Temperature != nil && c.OpenAI.Timeout != nil &&
			c.Log.Level != "" && c.Trace.File != "" &&
			c.Metrics.File != "" && c.Metrics.Interval != 0 &&
			*c.OpenAI.Temperature == wantTemp &&
			*c.OpenAI.Timeout == wantTimeout &&
			keep(f.Model != "", c.OpenAI.Model, f.Model) &&
			keep(f.BaseURL != "", c.OpenAI.BaseURL, f.BaseURL) &&
			keep(f.MaxTokens != 0, c.OpenAI.MaxTokens, int(f.MaxTokens))
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

// TestApplyDefaultsKeepsExplicitZero verifies that temperature 0 and timeout 0
// survive defaulting.
func TestApplyDefaultsKeepsExplicitZero(t *testing.T) {
	c := openAIFields{SetTemp: true, SetTimeout: true}.config()
	c.applyDefaults()

	if *c.OpenAI.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", *c.OpenAI.Temperature)
	}
	if *c.OpenAI.Timeout != 0 {
		t.Errorf("timeout = %v, want 0", *c.OpenAI.Timeout)
	}
}

// TestApplyEnvOverridesFile verifies that non-empty environment values
// win over file values and empty ones leave them alone.
func TestApplyEnvOverridesFile(t *testing.T) {
	property := func(fileKey, envKey, fileURL, envURL string) bool {
		c := &Config{OpenAI: OpenAIConfig{APIKey: fileKey, BaseURL: fileURL}}
		env := map[string]string{EnvAPIKey: envKey, EnvBaseURL: envURL}

		c.applyEnv(func(name string) string { return env[name] })

		pick := func(file, env string) string {
			if env != "" {
				return env
			}
			return file
		}
		return c.OpenAI.APIKey == pick(fileKey, envKey) &&
			c.OpenAI.BaseURL == pick(fileURL, envURL)
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

// TestValidateAPIKey verifies that validation of an otherwise default config
// fails exactly when the API key is empty.
func TestValidateAPIKey(t *testing.T) {
	property := func(apiKey string, f openAIFields) bool {
		f.SetTemp = false
		c := f.config()
		c.OpenAI.APIKey = apiKey
		c.applyDefaults()

		err := c.validate()
		return (apiKey == "") == (err != nil)
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}
