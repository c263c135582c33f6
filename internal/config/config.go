// Package config provides configuration management for the guard service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bridge   BridgeConfig   `mapstructure:"bridge"`
	Guard    GuardConfig    `mapstructure:"guard"`
	FillMode FillModeConfig `mapstructure:"fillmode"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BridgeConfig holds terminal bridge connection settings.
type BridgeConfig struct {
	URL       string        `mapstructure:"url"`
	StreamURL string        `mapstructure:"stream_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GuardConfig holds scheduler tuning.
type GuardConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	QuoteTTL    time.Duration `mapstructure:"quote_ttl"`
}

// FillModeConfig holds the fill-mode preference policy. The class table is
// deliberately configuration: category rules vary by broker and must not be
// baked into code.
type FillModeConfig struct {
	SmallVolumeMax float64           `mapstructure:"small_volume_max"`
	Preferred      map[string]string `mapstructure:"preferred"` // class -> mode name
	Classes        []ClassRuleConfig `mapstructure:"classes"`
}

// ClassRuleConfig maps symbols into a class for preference lookup.
type ClassRuleConfig struct {
	Class    string   `mapstructure:"class"`
	Prefixes []string `mapstructure:"prefixes"`
	Contains []string `mapstructure:"contains"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/mt5-guard"
	}
	return filepath.Join(home, ".config", "mt5-guard")
}

// Load loads configuration from the specified directory. If configDir is
// empty the default config directory is used; a missing config file gets a
// commented template written in its place.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("bridge.url", "http://127.0.0.1:6542")
	v.SetDefault("bridge.timeout", "5s")
	v.SetDefault("guard.interval", "2s")
	v.SetDefault("guard.call_timeout", "5s")
	v.SetDefault("guard.quote_ttl", "2s")
	v.SetDefault("fillmode.small_volume_max", 0.1)
	v.SetDefault("store.path", filepath.Join(configDir, "guard.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "guard.log"))
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MT5_BRIDGE_URL"); v != "" {
		cfg.Bridge.URL = v
	}
	if v := os.Getenv("MT5_BRIDGE_STREAM_URL"); v != "" {
		cfg.Bridge.StreamURL = v
	}
	if v := os.Getenv("MT5_GUARD_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MT5_GUARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Bridge.URL == "" {
		return fmt.Errorf("bridge.url must be set")
	}
	if c.Guard.Interval <= 0 {
		return fmt.Errorf("guard.interval must be positive")
	}
	if c.Guard.CallTimeout <= 0 {
		return fmt.Errorf("guard.call_timeout must be positive")
	}
	if c.FillMode.SmallVolumeMax < 0 {
		return fmt.Errorf("fillmode.small_volume_max must not be negative")
	}
	return nil
}
