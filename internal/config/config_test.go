package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Without an explicit path a missing config file falls back to defaults.
	cwd, _ := os.Getwd()
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host.URL != "ws://127.0.0.1:8766/ws" {
		t.Errorf("host.url = %q", cfg.Host.URL)
	}
	if cfg.Reconnect.TimeoutSecs != 12 {
		t.Errorf("reconnect.timeout_secs = %d, want 12", cfg.Reconnect.TimeoutSecs)
	}
	if cfg.Reconnect.CooldownSecs != 5 {
		t.Errorf("reconnect.cooldown_secs = %d, want 5", cfg.Reconnect.CooldownSecs)
	}
	if cfg.Activity.IdleWindowSecs != 5 {
		t.Errorf("activity.idle_window_secs = %d, want 5", cfg.Activity.IdleWindowSecs)
	}
	if cfg.Dispatch.FlushIntervalMS != 16 {
		t.Errorf("dispatch.flush_interval_ms = %d, want 16", cfg.Dispatch.FlushIntervalMS)
	}
	if cfg.Diag.Enabled {
		t.Error("diag enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
host:
  url: wss://build-box:9000/ws
reconnect:
  timeout_secs: 30
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host.URL != "wss://build-box:9000/ws" {
		t.Errorf("host.url = %q", cfg.Host.URL)
	}
	if cfg.Reconnect.TimeoutSecs != 30 {
		t.Errorf("reconnect.timeout_secs = %d, want 30", cfg.Reconnect.TimeoutSecs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
	// Unset keys keep defaults.
	if cfg.Activity.IdleWindowSecs != 5 {
		t.Errorf("activity.idle_window_secs = %d, want default 5", cfg.Activity.IdleWindowSecs)
	}
}

func TestLoadResolvesStatePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
state:
  path: relative/state.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !filepath.IsAbs(cfg.State.Path) {
		t.Errorf("state.path not absolute: %q", cfg.State.Path)
	}
}

func defaultTestConfig() *Config {
	return &Config{
		Host:      HostConfig{URL: "ws://127.0.0.1:8766/ws", ConnectTimeoutSecs: 10},
		Reconnect: ReconnectConfig{TimeoutSecs: 12, CooldownSecs: 5},
		Activity:  ActivityConfig{IdleWindowSecs: 5},
		Dispatch:  DispatchConfig{FlushIntervalMS: 16},
		Diag:      DiagConfig{Enabled: false, Addr: "127.0.0.1:8790"},
		Logging:   LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 20},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"wss allowed", func(c *Config) { c.Host.URL = "wss://example.com/ws" }, false},
		{"http scheme rejected", func(c *Config) { c.Host.URL = "http://example.com/ws" }, true},
		{"empty url rejected", func(c *Config) { c.Host.URL = "" }, true},
		{"zero connect timeout rejected", func(c *Config) { c.Host.ConnectTimeoutSecs = 0 }, true},
		{"zero reconnect timeout rejected", func(c *Config) { c.Reconnect.TimeoutSecs = 0 }, true},
		{"negative cooldown rejected", func(c *Config) { c.Reconnect.CooldownSecs = -1 }, true},
		{"zero cooldown allowed", func(c *Config) { c.Reconnect.CooldownSecs = 0 }, false},
		{"zero idle window rejected", func(c *Config) { c.Activity.IdleWindowSecs = 0 }, true},
		{"zero flush interval rejected", func(c *Config) { c.Dispatch.FlushIntervalMS = 0 }, true},
		{"diag loopback ok", func(c *Config) { c.Diag.Enabled = true }, false},
		{"diag localhost ok", func(c *Config) { c.Diag.Enabled = true; c.Diag.Addr = "localhost:8790" }, false},
		{"diag public bind rejected", func(c *Config) { c.Diag.Enabled = true; c.Diag.Addr = "0.0.0.0:8790" }, true},
		{"diag bad addr rejected", func(c *Config) { c.Diag.Enabled = true; c.Diag.Addr = "nonsense" }, true},
		{"diag disabled skips addr check", func(c *Config) { c.Diag.Addr = "0.0.0.0:8790" }, false},
		{"bad log level rejected", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format rejected", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"log file needs max size", func(c *Config) { c.Logging.File = "/tmp/x.log"; c.Logging.MaxSizeMB = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
