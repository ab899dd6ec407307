// Package config handles configuration management for termsync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Host      HostConfig      `mapstructure:"host"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	State     StateConfig     `mapstructure:"state"`
	Diag      DiagConfig      `mapstructure:"diag"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// HostConfig holds process host connection settings.
type HostConfig struct {
	URL                string `mapstructure:"url"` // ws:// or wss://
	ConnectTimeoutSecs int    `mapstructure:"connect_timeout_secs"`
}

// ReconnectConfig holds recovery-attempt timing.
type ReconnectConfig struct {
	TimeoutSecs  int `mapstructure:"timeout_secs"`  // bound on one attempt
	CooldownSecs int `mapstructure:"cooldown_secs"` // duplicate-stimulus absorption window
}

// ActivityConfig holds activity decay settings.
type ActivityConfig struct {
	IdleWindowSecs int `mapstructure:"idle_window_secs"`
}

// DispatchConfig holds event pipeline settings.
type DispatchConfig struct {
	FlushIntervalMS int `mapstructure:"flush_interval_ms"`
}

// StateConfig holds local persistence settings.
type StateConfig struct {
	Path string `mapstructure:"path"` // sqlite file; empty disables persistence
}

// DiagConfig holds the diagnostics endpoint settings.
type DiagConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Pprof   bool   `mapstructure:"pprof"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "console" or "json"
	File       string `mapstructure:"file"`   // optional rotating log file
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.termsync")
	}

	v.SetEnvPrefix("TERMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("host.url", "ws://127.0.0.1:8766/ws")
	v.SetDefault("host.connect_timeout_secs", 10)

	v.SetDefault("reconnect.timeout_secs", 12)
	v.SetDefault("reconnect.cooldown_secs", 5)

	v.SetDefault("activity.idle_window_secs", 5)

	v.SetDefault("dispatch.flush_interval_ms", 16)

	v.SetDefault("state.path", "")

	v.SetDefault("diag.enabled", false)
	v.SetDefault("diag.addr", "127.0.0.1:8790")
	v.SetDefault("diag.pprof", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 3)
}

// postProcess applies post-processing to configuration.
func postProcess(cfg *Config) error {
	if cfg.State.Path == "" {
		return nil
	}

	absPath, err := filepath.Abs(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve state path: %w", err)
	}
	cfg.State.Path = absPath
	return nil
}

// GetConfigDir returns the user config directory for termsync.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".termsync"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultStatePath returns the default sqlite location under the config dir.
func DefaultStatePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}
