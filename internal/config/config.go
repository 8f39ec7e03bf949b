// Package config loads service configuration from defaults, an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PORTFOLIO_LOG_LEVEL.
const EnvPrefix = "PORTFOLIO"

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config is the full service configuration.
type Config struct {
	Port       int              `mapstructure:"port"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Stream     StreamConfig     `mapstructure:"stream"`
	DevFixture DevFixtureConfig `mapstructure:"dev_fixture"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ProviderConfig configures the profile provider client.
type ProviderConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the generative model.
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model overrides the standard-tier model when set.
	Model string `mapstructure:"model"`
}

// StreamConfig configures event streaming.
type StreamConfig struct {
	Delay     time.Duration `mapstructure:"delay"`
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// DevFixtureConfig enables the development-only fixture fallback.
type DevFixtureConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Identifier string `mapstructure:"identifier"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	PipelinePerMinute int      `mapstructure:"pipeline_per_minute"`
	Burst             int      `mapstructure:"burst"`
	Whitelist         []string `mapstructure:"whitelist"`
	Blacklist         []string `mapstructure:"blacklist"`
}

// legacyEnv maps keys to unprefixed environment names that are still honoured.
var legacyEnv = map[string]string{
	"llm.api_key":      "GEMINI_API_KEY",
	"provider.api_key": "PROFILE_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("provider.endpoint", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.api_key_header", "x-api-key")
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("stream.delay", "3ms")
	v.SetDefault("stream.keep_alive", "15s")
	v.SetDefault("dev_fixture.enabled", false)
	v.SetDefault("dev_fixture.identifier", "demo-profile")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatJSON)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.pipeline_per_minute", 10)
	v.SetDefault("rate_limit.burst", 3)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration. path may be empty; otherwise it names a JSON or
// YAML file. Environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	return &cfg, nil
}

// Validate checks that the configuration has valid values. It does not require
// credentials; see RequireCredentials.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("'port' must be between 1 and 65535, got %d", c.Port))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("'provider.timeout' must be positive"))
	}
	if c.Stream.Delay < 0 {
		errs = append(errs, errors.New("'stream.delay' must be non-negative"))
	}
	if c.Stream.KeepAlive <= 0 {
		errs = append(errs, errors.New("'stream.keep_alive' must be positive"))
	}
	if c.DevFixture.Enabled && strings.TrimSpace(c.DevFixture.Identifier) == "" {
		errs = append(errs, errors.New("'dev_fixture.identifier' is required when the fixture is enabled"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("'log.level' is invalid: %q", c.Log.Level))
	}
	if c.Log.Format != FormatJSON && c.Log.Format != FormatConsole {
		errs = append(errs, fmt.Errorf("'log.format' must be %q or %q, got %q", FormatJSON, FormatConsole, c.Log.Format))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.PipelinePerMinute < 1 {
			errs = append(errs, errors.New("'rate_limit.pipeline_per_minute' must be at least 1"))
		}
		if c.RateLimit.Burst < 1 {
			errs = append(errs, errors.New("'rate_limit.burst' must be at least 1"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireCredentials checks the keys needed to run the pipeline.
func (c *Config) RequireCredentials() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("config error: 'llm.api_key' is required (or set GEMINI_API_KEY)")
	}
	return nil
}
