package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid or dangerous values.
func Validate(cfg *Config) error {
	if err := validateHost(&cfg.Host); err != nil {
		return err
	}
	if err := validateReconnect(&cfg.Reconnect); err != nil {
		return err
	}
	if cfg.Activity.IdleWindowSecs <= 0 {
		return fmt.Errorf("activity.idle_window_secs must be positive, got %d", cfg.Activity.IdleWindowSecs)
	}
	if cfg.Dispatch.FlushIntervalMS <= 0 {
		return fmt.Errorf("dispatch.flush_interval_ms must be positive, got %d", cfg.Dispatch.FlushIntervalMS)
	}
	if err := validateDiag(&cfg.Diag); err != nil {
		return err
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateHost(cfg *HostConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("host.url is required")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("host.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("host.url must use ws:// or wss://, got %q", u.Scheme)
	}

	if cfg.ConnectTimeoutSecs <= 0 {
		return fmt.Errorf("host.connect_timeout_secs must be positive, got %d", cfg.ConnectTimeoutSecs)
	}
	return nil
}

func validateReconnect(cfg *ReconnectConfig) error {
	if cfg.TimeoutSecs <= 0 {
		return fmt.Errorf("reconnect.timeout_secs must be positive, got %d", cfg.TimeoutSecs)
	}
	if cfg.CooldownSecs < 0 {
		return fmt.Errorf("reconnect.cooldown_secs must not be negative, got %d", cfg.CooldownSecs)
	}
	return nil
}

func validateDiag(cfg *DiagConfig) error {
	if !cfg.Enabled {
		return nil
	}

	hostPart, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return fmt.Errorf("diag.addr is not host:port: %w", err)
	}

	// Diagnostics expose internal state; refuse non-loopback binds.
	ip := net.ParseIP(hostPart)
	if hostPart != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("diag.addr must bind a loopback address, got %q", hostPart)
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("logging.level must be a zerolog level, got %q", cfg.Level)
	}

	switch cfg.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Format)
	}

	if cfg.File != "" && cfg.MaxSizeMB <= 0 {
		return fmt.Errorf("logging.max_size_mb must be positive when a log file is set")
	}
	return nil
}
