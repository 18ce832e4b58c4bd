// Package config handles configuration loading for TradeGauge.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"   yaml:"advisor"`
	Scoring   ScoringConfig   `mapstructure:"scoring"   yaml:"scoring"`
	Strikes   StrikesConfig   `mapstructure:"strikes"   yaml:"strikes"`
	Events    EventsConfig    `mapstructure:"events"    yaml:"events"`
	Sync      SyncConfig      `mapstructure:"sync"      yaml:"sync"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds the market data provider credentials.
type ProvidersConfig struct {
	FinnhubAPIKey string `mapstructure:"finnhub_api_key" yaml:"finnhub_api_key"`
	PolygonAPIKey string `mapstructure:"polygon_api_key" yaml:"polygon_api_key"`
	TradierToken  string `mapstructure:"tradier_token"   yaml:"tradier_token"`
	FredAPIKey    string `mapstructure:"fred_api_key"    yaml:"fred_api_key"`
}

// AdvisorConfig holds the LLM advisory settings.
type AdvisorConfig struct {
	OpenAIKey string `mapstructure:"openai_key" yaml:"openai_key"`
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`
	Model     string `mapstructure:"model"      yaml:"model"`
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"`
}

// ScoringConfig tunes the risk score blend and price input handling.
type ScoringConfig struct {
	CalibrationScale float64 `mapstructure:"calibration_scale" yaml:"calibration_scale" json:"calibration_scale"`
	CalibrationBias  float64 `mapstructure:"calibration_bias"  yaml:"calibration_bias"  json:"calibration_bias"`
	MaxDrivers       int     `mapstructure:"max_drivers"       yaml:"max_drivers"       json:"max_drivers"`
	// PaidRefMultiple: a bare integer premium above this multiple of the
	// reference mark is read as cents.
	PaidRefMultiple float64 `mapstructure:"paid_ref_multiple" yaml:"paid_ref_multiple" json:"paid_ref_multiple"`
}

// StrikesConfig tunes the strike display window.
type StrikesConfig struct {
	EachSide int `mapstructure:"each_side" yaml:"each_side" json:"each_side"`
}

// EventsConfig tunes the calendar lookahead.
type EventsConfig struct {
	HorizonDays   int `mapstructure:"horizon_days"   yaml:"horizon_days"   json:"horizon_days"`
	HeadlineLimit int `mapstructure:"headline_limit" yaml:"headline_limit" json:"headline_limit"`
}

// SyncConfig tunes the live spot refresh loop.
type SyncConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec" json:"poll_interval_sec"`
	CooldownSec     int `mapstructure:"cooldown_sec"      yaml:"cooldown_sec"      json:"cooldown_sec"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tradegauge/config.yaml (home directory)
//  3. /etc/tradegauge/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRADEGAUGE_<SECTION>_<KEY>, e.g., TRADEGAUGE_PROVIDERS_POLYGON_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tradegauge"))
	v.AddConfigPath("/etc/tradegauge")

	v.SetEnvPrefix("TRADEGAUGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADEGAUGE")
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
	// Advisor defaults
	v.SetDefault("advisor.base_url", "https://api.openai.com/v1")
	v.SetDefault("advisor.model", "gpt-4o-mini")
	v.SetDefault("advisor.enabled", true)

	// Scoring defaults
	v.SetDefault("scoring.calibration_scale", 0.85)
	v.SetDefault("scoring.calibration_bias", -1.2)
	v.SetDefault("scoring.max_drivers", 6)
	v.SetDefault("scoring.paid_ref_multiple", 3)

	// Strike window defaults
	v.SetDefault("strikes.each_side", 30)

	// Calendar defaults
	v.SetDefault("events.horizon_days", 14)
	v.SetDefault("events.headline_limit", 8)

	// Live sync defaults
	v.SetDefault("sync.poll_interval_sec", 10)
	v.SetDefault("sync.cooldown_sec", 60)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:5173"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TRADEGAUGE_PROVIDERS_FINNHUB_API_KEY"); key != "" {
		cfg.Providers.FinnhubAPIKey = key
	}
	if key := os.Getenv("TRADEGAUGE_PROVIDERS_POLYGON_API_KEY"); key != "" {
		cfg.Providers.PolygonAPIKey = key
	}
	if key := os.Getenv("TRADEGAUGE_PROVIDERS_TRADIER_TOKEN"); key != "" {
		cfg.Providers.TradierToken = key
	}
	if key := os.Getenv("TRADEGAUGE_PROVIDERS_FRED_API_KEY"); key != "" {
		cfg.Providers.FredAPIKey = key
	}
	if key := os.Getenv("TRADEGAUGE_ADVISOR_OPENAI_KEY"); key != "" {
		cfg.Advisor.OpenAIKey = key
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
