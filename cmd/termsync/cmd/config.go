package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brianly1003/termsync/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage termsync configuration.

Without subcommands, shows the current effective configuration.

Examples:
  termsync config              # Show current config
  termsync config init         # Create config file with defaults
  termsync config path         # Show config file location`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		printConfig(cfg)
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings.

By default, creates ~/.termsync/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  termsync config init          # Create ~/.termsync/config.yaml
  termsync config init --local  # Create ./config.yaml
  termsync config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Run:   runConfigPath,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create ./config.yaml instead of ~/.termsync/config.yaml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var path string
	if configInitLocal {
		path = "config.yaml"
	} else {
		dir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	statePath, err := config.DefaultStatePath()
	if err != nil {
		return fmt.Errorf("failed to resolve state path: %w", err)
	}

	defaults := map[string]interface{}{
		"host": map[string]interface{}{
			"url":                  "ws://127.0.0.1:8766/ws",
			"connect_timeout_secs": 10,
		},
		"reconnect": map[string]interface{}{
			"timeout_secs":  12,
			"cooldown_secs": 5,
		},
		"activity": map[string]interface{}{
			"idle_window_secs": 5,
		},
		"dispatch": map[string]interface{}{
			"flush_interval_ms": 16,
		},
		"state": map[string]interface{}{
			"path": statePath,
		},
		"diag": map[string]interface{}{
			"enabled": false,
			"addr":    "127.0.0.1:8790",
			"pprof":   false,
		},
		"logging": map[string]interface{}{
			"level":       "info",
			"format":      "console",
			"file":        "",
			"max_size_mb": 20,
			"max_backups": 3,
		},
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	dir, err := config.GetConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s (exists)\n", path)
	} else {
		fmt.Printf("%s (not created yet; run 'termsync config init')\n", path)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Host URL:          %s\n", cfg.Host.URL)
	fmt.Printf("Reconnect Timeout: %ds\n", cfg.Reconnect.TimeoutSecs)
	fmt.Printf("Idle Window:       %ds\n", cfg.Activity.IdleWindowSecs)
	fmt.Printf("Flush Interval:    %dms\n", cfg.Dispatch.FlushIntervalMS)
	fmt.Printf("State Path:        %s\n", cfg.State.Path)
	fmt.Printf("Diag Enabled:      %t\n", cfg.Diag.Enabled)
	fmt.Printf("Log Level:         %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:        %s\n", cfg.Logging.Format)
}
