// Package main provides the ConnWatch daemon CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calm-green-heron/connwatch/internal/probe"
)

// Config represents the daemon configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Backup  BackupConfig  `yaml:"backup"`
	Probe   ProbeConfig   `yaml:"probe"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify"`
	Verbose bool          `yaml:"-"` // set via CLI flag
}

// DataConfig contains persistence paths.
type DataConfig struct {
	DBPath     string `yaml:"db_path"`     // Canonical database file (default: ./data/connwatch.db)
	ArchiveDir string `yaml:"archive_dir"` // Backup archive directory (default: ./data/backups)
}

// BackupConfig contains flush scheduling settings.
type BackupConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"` // Interval between scheduled backups (default: 1h)
}

// ProbeConfig contains connectivity prober settings.
type ProbeConfig struct {
	Interval    time.Duration  `yaml:"interval"`     // Interval between probe rounds (default: 30s)
	Timeout     time.Duration  `yaml:"timeout"`      // Per-target timeout (default: 5s)
	Targets     []probe.Target `yaml:"targets"`      // Inline target list
	TargetsFile string         `yaml:"targets_file"` // Optional hot-reloaded targets file
}

// APIConfig contains HTTP API settings.
type APIConfig struct {
	Address        string `yaml:"address"`           // Listen address (default: :8080)
	RateLimitPerIP int    `yaml:"rate_limit_per_ip"` // Requests per minute per IP (default: 120)
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"` // Disable the Prometheus endpoint
	Address  string `yaml:"address"`  // Metrics listen address (default: :9090)
}

// NotifyConfig contains backup notification settings.
type NotifyConfig struct {
	WebhookURL   string        `yaml:"webhook_url"`    // Optional webhook endpoint
	MaxPerWindow int           `yaml:"max_per_window"` // Notification rate limit (default: 10)
	Window       time.Duration `yaml:"window"`         // Rate limit window (default: 1m)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Data.DBPath == "" {
		c.Data.DBPath = "data/connwatch.db"
	}
	if c.Data.ArchiveDir == "" {
		c.Data.ArchiveDir = "data/backups"
	}
	if c.Backup.FlushInterval == 0 {
		c.Backup.FlushInterval = time.Hour
	}
	if c.Probe.Interval == 0 {
		c.Probe.Interval = 30 * time.Second
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = 5 * time.Second
	}
	if len(c.Probe.Targets) == 0 && c.Probe.TargetsFile == "" {
		c.Probe.Targets = []probe.Target{
			{Name: "cloudflare", URL: "https://cloudflare.com/cdn-cgi/trace"},
			{Name: "google", URL: "https://www.google.com/generate_204"},
		}
	}
	if c.API.Address == "" {
		c.API.Address = ":8080"
	}
	if c.API.RateLimitPerIP == 0 {
		c.API.RateLimitPerIP = 120
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Notify.MaxPerWindow == 0 {
		c.Notify.MaxPerWindow = 10
	}
	if c.Notify.Window == 0 {
		c.Notify.Window = time.Minute
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Data.DBPath == "" {
		return fmt.Errorf("data.db_path is required")
	}
	if c.Data.ArchiveDir == "" {
		return fmt.Errorf("data.archive_dir is required")
	}
	if c.Backup.FlushInterval < time.Second {
		return fmt.Errorf("backup.flush_interval must be at least 1s")
	}
	if len(c.Probe.Targets) == 0 && c.Probe.TargetsFile == "" {
		return fmt.Errorf("probe.targets or probe.targets_file is required")
	}
	for _, t := range c.Probe.Targets {
		if t.URL == "" {
			return fmt.Errorf("probe target %q has no url", t.Name)
		}
	}
	return nil
}
