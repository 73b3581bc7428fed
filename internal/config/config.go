// Package config handles configuration loading for tickerdata.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Provider Provider `mapstructure:"provider" yaml:"provider"`
	Fetcher  Fetcher  `mapstructure:"fetcher"  yaml:"fetcher"`
	Pipeline Pipeline `mapstructure:"pipeline" yaml:"pipeline"`
	API      API      `mapstructure:"api"      yaml:"api"`
	Logging  Logging  `mapstructure:"logging"  yaml:"logging"`
}

// Provider holds market-data provider settings.
type Provider struct {
	BaseURL       string `mapstructure:"base_url"        yaml:"base_url"`
	APIKey        string `mapstructure:"api_key"         yaml:"api_key"`
	MaxRetries    int    `mapstructure:"max_retries"     yaml:"max_retries"`    // retries after the first attempt
	BackoffMillis int    `mapstructure:"backoff_millis"  yaml:"backoff_millis"` // initial backoff, doubles per attempt
	RateLimit     int    `mapstructure:"rate_limit"      yaml:"rate_limit"`     // requests per rate window
	RateWindowSec int    `mapstructure:"rate_window_sec" yaml:"rate_window_sec"`
}

// Fetcher holds the external script fetcher settings.
type Fetcher struct {
	Interpreter         string `mapstructure:"interpreter"          yaml:"interpreter"`
	FallbackInterpreter string `mapstructure:"fallback_interpreter" yaml:"fallback_interpreter"`
	ScriptDir           string `mapstructure:"script_dir"           yaml:"script_dir"`
	TimeoutSec          int    `mapstructure:"timeout_sec"          yaml:"timeout_sec"`
}

// Pipeline holds fundamentals pipeline settings.
type Pipeline struct {
	AnnualLimit    int `mapstructure:"annual_limit"    yaml:"annual_limit"`    // max annual periods per statement
	QuarterlyLimit int `mapstructure:"quarterly_limit" yaml:"quarterly_limit"` // max quarterly periods per statement
	CacheTTLSec    int `mapstructure:"cache_ttl_sec"   yaml:"cache_ttl_sec"`
}

// API holds HTTP API server settings.
type API struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Logging holds logging settings.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Backoff returns the initial retry backoff as a duration.
func (p Provider) Backoff() time.Duration {
	return time.Duration(p.BackoffMillis) * time.Millisecond
}

// RateWindow returns the rate-limit refill window as a duration.
func (p Provider) RateWindow() time.Duration {
	return time.Duration(p.RateWindowSec) * time.Second
}

// Timeout returns the subprocess wall-clock timeout as a duration.
func (f Fetcher) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// CacheTTL returns the pipeline cache TTL as a duration.
func (p Pipeline) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSec) * time.Second
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tickerdata/config.yaml (home directory)
//  3. /etc/tickerdata/config.yaml (system)
//
// Environment variables override config file values.
// Format: TICKERDATA_<SECTION>_<KEY>, e.g., TICKERDATA_PROVIDER_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tickerdata"))
	v.AddConfigPath("/etc/tickerdata")

	// Environment variable settings
	v.SetEnvPrefix("TICKERDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TICKERDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("provider.max_retries", 2)      // 3 attempts total
	v.SetDefault("provider.backoff_millis", 500) // 500ms, then 1s
	v.SetDefault("provider.rate_limit", 5)
	v.SetDefault("provider.rate_window_sec", 60)

	// Fetcher defaults
	v.SetDefault("fetcher.interpreter", "python3")
	v.SetDefault("fetcher.fallback_interpreter", "python")
	v.SetDefault("fetcher.script_dir", "data")
	v.SetDefault("fetcher.timeout_sec", 60)

	// Pipeline defaults
	v.SetDefault("pipeline.annual_limit", 20)
	v.SetDefault("pipeline.quarterly_limit", 12)
	v.SetDefault("pipeline.cache_ttl_sec", 3600) // 1 hour

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The provider's conventional variable name is honored alongside the
// prefixed form so existing deployments keep working.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TICKERDATA_PROVIDER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if cfg.Provider.APIKey == "" {
		if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
			cfg.Provider.APIKey = key
		}
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
