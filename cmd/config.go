// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file. Every value has a default;
// command-line flags override file values.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Monitor    MonitorConfig    `yaml:"monitor"`

	// Packs maps device indices to display aliases.
	Packs map[int]string `yaml:"packs"`
}

// ConnectionConfig selects the byte source
type ConnectionConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	TCP      string `yaml:"tcp"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

// MonitorConfig tunes the monitor pipeline
type MonitorConfig struct {
	UpdateIntervalMs int    `yaml:"update_interval_ms"` // update gate minimum interval
	LinkTimeoutMs    int    `yaml:"link_timeout_ms"`    // link-alive timeout (master silence)
	StatsIntervalS   int    `yaml:"stats_interval_s"`   // statistics log interval
	Sink             string `yaml:"sink"`               // "console" or "jsonl"
	Output           string `yaml:"output"`             // jsonl output path
	LogLevel         string `yaml:"log_level"`          // trace/debug/info/warn/error
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{Baud: 19200},
		Monitor: MonitorConfig{
			UpdateIntervalMs: 5000,
			LinkTimeoutMs:    15000,
			StatsIntervalS:   60,
			Sink:             "console",
			LogLevel:         "info",
		},
	}
}

// LoadConfig reads and validates a YAML config file. An empty path returns
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Connection.Baud <= 0 {
		return fmt.Errorf("connection.baud must be > 0")
	}
	if c.Monitor.UpdateIntervalMs < 0 {
		return fmt.Errorf("monitor.update_interval_ms must be >= 0")
	}
	if c.Monitor.LinkTimeoutMs <= 0 {
		return fmt.Errorf("monitor.link_timeout_ms must be > 0")
	}
	if c.Monitor.StatsIntervalS <= 0 {
		return fmt.Errorf("monitor.stats_interval_s must be > 0")
	}
	switch c.Monitor.Sink {
	case "console", "jsonl":
	default:
		return fmt.Errorf("monitor.sink must be \"console\" or \"jsonl\", got %q", c.Monitor.Sink)
	}
	if c.Monitor.Sink == "jsonl" && c.Monitor.Output == "" {
		return fmt.Errorf("monitor.output is required for the jsonl sink")
	}
	for idx := range c.Packs {
		if idx < 0 || idx > 15 {
			return fmt.Errorf("packs: device index %d out of range [0, 15]", idx)
		}
	}
	return nil
}

// UpdateInterval returns the update gate interval as a duration
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.Monitor.UpdateIntervalMs) * time.Millisecond
}

// LinkTimeout returns the link-alive timeout as a duration
func (c *Config) LinkTimeout() time.Duration {
	return time.Duration(c.Monitor.LinkTimeoutMs) * time.Millisecond
}

// PackName returns the configured alias for a device index, or "packN"
func (c *Config) PackName(idx int) string {
	if name, ok := c.Packs[idx]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("pack%d", idx)
}

// applyConnectionConfig copies file connection values into the flag
// variables unless the user set the flag.
func applyConnectionConfig(cfg *Config) {
	if portName == "" {
		portName = cfg.Connection.Port
	}
	if baudRate == 19200 && cfg.Connection.Baud != 0 {
		baudRate = cfg.Connection.Baud
	}
	if tcpAddr == "" {
		tcpAddr = cfg.Connection.TCP
	}
	if wsURL == "" {
		wsURL = cfg.Connection.URL
	}
	if wsUsername == "" {
		wsUsername = cfg.Connection.Username
	}
}
